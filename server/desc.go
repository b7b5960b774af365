package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "edgeql.normalize.v1.NormalizeService"

const (
	methodNormalize = "/" + ServiceName + "/Normalize"
	methodTop       = "/" + ServiceName + "/Top"
	methodWatch     = "/" + ServiceName + "/Watch"
)

// NormalizeServiceServer is the server API for NormalizeService. Messages
// are protobuf well-known types; events and key statistics travel as
// google.protobuf.Struct.
type NormalizeServiceServer interface {
	// Normalize normalizes the query in the request and returns its event.
	Normalize(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Top returns up to n key statistics, most frequent first.
	Top(context.Context, *wrapperspb.Int32Value) (*structpb.ListValue, error)
	// Watch streams every event handled by the service.
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterNormalizeServiceServer registers srv on s.
func RegisterNormalizeServiceServer(s grpc.ServiceRegistrar, srv NormalizeServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NormalizeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Normalize", Handler: normalizeHandler},
		{MethodName: "Top", Handler: topHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
}

func normalizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NormalizeServiceServer).Normalize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodNormalize}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NormalizeServiceServer).Normalize(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func topHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NormalizeServiceServer).Top(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTop}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NormalizeServiceServer).Top(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(NormalizeServiceServer).Watch(m, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}
