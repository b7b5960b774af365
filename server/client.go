package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Isabellarossi/edgedb/service"
	"github.com/Isabellarossi/edgedb/stats"
)

// Client talks to a NormalizeService.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a Client for addr. Without options the connection is
// plaintext.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("server: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Normalize asks the server to normalize text. Errors carry the gRPC status
// set by the server.
func (c *Client) Normalize(ctx context.Context, text string) (service.Event, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodNormalize, wrapperspb.String(text), out); err != nil {
		return service.Event{}, fmt.Errorf("server: normalize: %w", err)
	}
	return eventFromProto(out)
}

// Top fetches up to n key statistics.
func (c *Client) Top(ctx context.Context, n int) ([]stats.KeyStat, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, methodTop, wrapperspb.Int32(int32(n)), out); err != nil { //nolint:gosec // small counts
		return nil, fmt.Errorf("server: top: %w", err)
	}
	return statsFromProto(out)
}

// WatchStream receives events from a Watch call.
type WatchStream struct {
	stream grpc.ServerStreamingClient[structpb.Struct]
}

// Recv blocks until the next event arrives or the stream ends.
func (w *WatchStream) Recv() (service.Event, error) {
	m, err := w.stream.Recv()
	if err != nil {
		return service.Event{}, err //nolint:wrapcheck // callers compare against io.EOF
	}
	return eventFromProto(m)
}

// Watch subscribes to events. Cancel ctx to end the stream.
func (c *Client) Watch(ctx context.Context) (*WatchStream, error) {
	cs, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], methodWatch)
	if err != nil {
		return nil, fmt.Errorf("server: watch: %w", err)
	}
	stream := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: cs}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, fmt.Errorf("server: watch send: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("server: watch close send: %w", err)
	}
	return &WatchStream{stream: stream}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("server: close: %w", err)
	}
	return nil
}
