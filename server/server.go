package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/service"
	"github.com/Isabellarossi/edgedb/stats"
)

// TopLister reports the most frequent keys. *stats.Recorder implements it.
type TopLister interface {
	Top(ctx context.Context, n int) ([]stats.KeyStat, error)
}

// DefaultTop is the number of keys returned when a Top request asks for
// zero or fewer.
const DefaultTop = 20

// Server exposes a gRPC NormalizeService backed by a service.Service.
type Server struct {
	grpcServer *grpc.Server
}

// New creates a new Server. top may be nil if statistics are not configured.
func New(svc *service.Service, top TopLister, opts ...grpc.ServerOption) *Server {
	gs := grpc.NewServer(opts...)
	RegisterNormalizeServiceServer(gs, &normalizeService{svc: svc, top: top})

	return &Server{grpcServer: gs}
}

// Serve starts the gRPC server on the given listener.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Stop immediately stops the server, closing all active connections.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// GracefulStop gracefully stops the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

type normalizeService struct {
	svc *service.Service
	top TopLister
}

func (s *normalizeService) Normalize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	_, ev, err := s.svc.Normalize(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return eventToProto(ev), nil
}

func (s *normalizeService) Top(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.ListValue, error) {
	if s.top == nil {
		return nil, status.Error(codes.FailedPrecondition, "statistics are not configured (set EDGEQL_NORM_DSN)")
	}

	n := int(req.GetValue())
	if n <= 0 {
		n = DefaultTop
	}
	rows, err := s.top.Top(ctx, n)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, status.Error(codes.Canceled, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "top: %v", err)
	}
	return statsToProto(rows), nil
}

func (s *normalizeService) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch, unsub := s.svc.Subscribe()
	defer unsub()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("server: watch: %w", ctx.Err())
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(eventToProto(ev)); err != nil {
				return fmt.Errorf("server: watch send: %w", err)
			}
		}
	}
}

// toStatus maps a normalization failure to a gRPC status. Malformed input
// is the caller's fault; an assertion failure is ours.
func toStatus(err error) error {
	switch {
	case errors.Is(err, normalize.ErrTokenizer):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, normalize.ErrAssertion):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}
