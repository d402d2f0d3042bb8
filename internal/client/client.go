// Package client talks to the dashboard backend over gRPC and adapts its
// wire messages to the telemetry types.
package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pb "github.com/selemilka/hivewatch/api/dashboardpb"
	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/stream"
	"github.com/selemilka/hivewatch/internal/telemetry"
	"github.com/selemilka/hivewatch/internal/tracing"
)

// ErrNoProcesses is returned by RequireProcesses when the backend lists
// no processes yet.
var ErrNoProcesses = errors.New("client: backend lists no processes")

// Client wraps a DashboardClient.
type Client struct {
	conn *grpc.ClientConn
	rpc  pb.DashboardClient
}

// Dial connects to the backend at addr with plaintext credentials and
// the tracing interceptors. The connection is established lazily.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(tracing.ClientUnaryInterceptor()),
		grpc.WithChainStreamInterceptor(tracing.ClientStreamInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	hwlog.For("client").Info("backend client created", "addr", addr)
	return &Client{conn: conn, rpc: pb.NewDashboardClient(conn)}, nil
}

// New wraps an existing connection. Close is a no-op for such clients.
func New(cc grpc.ClientConnInterface) *Client {
	return &Client{rpc: pb.NewDashboardClient(cc)}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// ListProcesses returns the backend's current process listing.
func (c *Client) ListProcesses(ctx context.Context) ([]telemetry.ProcessInfo, error) {
	resp, err := c.rpc.AppsList(ctx, &pb.AppsListRequest{})
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	out := make([]telemetry.ProcessInfo, 0, len(resp.Apps))
	for _, a := range resp.Apps {
		if a != nil {
			out = append(out, processInfoFromWire(a))
		}
	}
	return out, nil
}

// RequireProcesses succeeds once the backend lists at least one process.
// It is the precondition for opening either stream.
func (c *Client) RequireProcesses(ctx context.Context) error {
	procs, err := c.ListProcesses(ctx)
	if err != nil {
		return err
	}
	if len(procs) == 0 {
		return ErrNoProcesses
	}
	return nil
}

type statusReceiver struct {
	s pb.Dashboard_AppsInfoClient
}

func (r statusReceiver) Recv() (telemetry.StatusMessage, error) {
	resp, err := r.s.Recv()
	if err != nil {
		return telemetry.StatusMessage{}, err
	}
	return statusMessageFromWire(resp), nil
}

type metricsReceiver struct {
	s pb.Dashboard_AppsMetricsClient
}

func (r metricsReceiver) Recv() (telemetry.MetricsMessage, error) {
	resp, err := r.s.Recv()
	if err != nil {
		return telemetry.MetricsMessage{}, err
	}
	return metricsMessageFromWire(resp), nil
}

// StreamStatus opens the status stream. An empty filter selects every
// process. The stream ends when ctx is done.
func (c *Client) StreamStatus(ctx context.Context, filter string) (stream.Receiver[telemetry.StatusMessage], error) {
	ctx = metadata.AppendToOutgoingContext(ctx, tracing.SubscriberHeader, "status")
	s, err := c.rpc.AppsInfo(ctx, &pb.AppsInfoRequest{FilterAppID: filter})
	if err != nil {
		return nil, fmt.Errorf("open status stream: %w", err)
	}
	return statusReceiver{s: s}, nil
}

// StreamMetrics opens the metrics stream. An empty filter selects every
// process.
func (c *Client) StreamMetrics(ctx context.Context, filter string) (stream.Receiver[telemetry.MetricsMessage], error) {
	ctx = metadata.AppendToOutgoingContext(ctx, tracing.SubscriberHeader, "metrics")
	s, err := c.rpc.AppsMetrics(ctx, &pb.AppsMetricsRequest{FilterAppID: filter})
	if err != nil {
		return nil, fmt.Errorf("open metrics stream: %w", err)
	}
	return metricsReceiver{s: s}, nil
}

func (c *Client) StartApp(ctx context.Context, id string) error {
	if _, err := c.rpc.StartApp(ctx, &pb.StartAppRequest{AppID: id}); err != nil {
		return fmt.Errorf("start %s: %w", id, err)
	}
	return nil
}

func (c *Client) StopApp(ctx context.Context, id string) error {
	if _, err := c.rpc.StopApp(ctx, &pb.StopAppRequest{AppID: id}); err != nil {
		return fmt.Errorf("stop %s: %w", id, err)
	}
	return nil
}
