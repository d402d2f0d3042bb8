// Package dashboardtest provides an in-process dashboard backend for tests
// and demos. Streams are driven explicitly: tests push status and metrics
// messages and drop streams to exercise reconnects.
package dashboardtest

import (
	"context"
	"net"
	"slices"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/selemilka/hivewatch/api/dashboardpb"
	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/tracing"
)

type statusSub struct {
	filter string
	out    chan *pb.AppsInfoResponse
	drop   chan struct{}
}

type metricsSub struct {
	filter string
	out    chan *pb.AppMetricsResponse
	drop   chan struct{}
}

// Backend implements pb.DashboardServer over an in-memory app registry.
type Backend struct {
	pb.UnimplementedDashboardServer

	mu         sync.Mutex
	apps       map[string]*pb.AppInfo
	listFails  int
	listCalls  int
	statusSubs map[*statusSub]struct{}
	metricSubs map[*metricsSub]struct{}
	started    []string
	stopped    []string
}

func NewBackend() *Backend {
	return &Backend{
		apps:       make(map[string]*pb.AppInfo),
		statusSubs: make(map[*statusSub]struct{}),
		metricSubs: make(map[*metricsSub]struct{}),
	}
}

// SetApps replaces the registry without notifying status streams.
func (b *Backend) SetApps(apps ...*pb.AppInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apps = make(map[string]*pb.AppInfo, len(apps))
	for _, a := range apps {
		b.apps[a.ID] = a
	}
}

// FailList makes the next n AppsList calls fail with Unavailable.
func (b *Backend) FailList(n int) {
	b.mu.Lock()
	b.listFails = n
	b.mu.Unlock()
}

// ListCalls returns how many AppsList calls were served or failed.
func (b *Backend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls
}

// PushStatus records apps in the registry and sends them to every status
// stream whose filter matches.
func (b *Backend) PushStatus(apps ...*pb.AppInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range apps {
		b.apps[a.ID] = a
	}
	for sub := range b.statusSubs {
		var matched []*pb.AppInfo
		for _, a := range apps {
			if sub.filter == "" || sub.filter == a.ID {
				matched = append(matched, a)
			}
		}
		if len(matched) == 0 {
			continue
		}
		select {
		case sub.out <- &pb.AppsInfoResponse{Apps: matched}:
		default:
		}
	}
}

// PushMetrics sends m to every metrics stream whose filter matches.
func (b *Backend) PushMetrics(m *pb.AppMetricsResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.metricSubs {
		if sub.filter != "" && sub.filter != m.ID {
			continue
		}
		select {
		case sub.out <- m:
		default:
		}
	}
}

// DropStreams ends every open stream gracefully.
func (b *Backend) DropStreams() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.statusSubs {
		close(sub.drop)
		delete(b.statusSubs, sub)
	}
	for sub := range b.metricSubs {
		close(sub.drop)
		delete(b.metricSubs, sub)
	}
}

// StatusStreams returns the number of open status streams.
func (b *Backend) StatusStreams() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.statusSubs)
}

// MetricsStreams returns the number of open metrics streams.
func (b *Backend) MetricsStreams() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.metricSubs)
}

// Started returns the app ids passed to StartApp, in call order.
func (b *Backend) Started() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.started)
}

// Stopped returns the app ids passed to StopApp, in call order.
func (b *Backend) Stopped() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.stopped)
}

func (b *Backend) sortedApps(filter string) []*pb.AppInfo {
	var out []*pb.AppInfo
	for _, a := range b.apps {
		if filter == "" || filter == a.ID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(x, y *pb.AppInfo) int {
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})
	return out
}

func (b *Backend) AppsList(ctx context.Context, _ *pb.AppsListRequest) (*pb.AppsListResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listFails > 0 {
		b.listFails--
		return nil, status.Error(codes.Unavailable, "backend warming up")
	}
	return &pb.AppsListResponse{Apps: b.sortedApps("")}, nil
}

// AppsInfo first sends the current state of the matching apps, then every
// pushed update until the stream is dropped or the client goes away.
func (b *Backend) AppsInfo(req *pb.AppsInfoRequest, stream pb.Dashboard_AppsInfoServer) error {
	sub := &statusSub{
		filter: req.FilterAppID,
		out:    make(chan *pb.AppsInfoResponse, 64),
		drop:   make(chan struct{}),
	}
	b.mu.Lock()
	initial := b.sortedApps(req.FilterAppID)
	b.statusSubs[sub] = struct{}{}
	b.mu.Unlock()
	defer b.removeStatus(sub)

	if len(initial) > 0 {
		if err := stream.Send(&pb.AppsInfoResponse{Apps: initial}); err != nil {
			return err
		}
	}
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-sub.drop:
			return nil
		case resp := <-sub.out:
			if err := stream.Send(resp); err != nil {
				return err
			}
		}
	}
}

func (b *Backend) AppsMetrics(req *pb.AppsMetricsRequest, stream pb.Dashboard_AppsMetricsServer) error {
	sub := &metricsSub{
		filter: req.FilterAppID,
		out:    make(chan *pb.AppMetricsResponse, 64),
		drop:   make(chan struct{}),
	}
	b.mu.Lock()
	b.metricSubs[sub] = struct{}{}
	b.mu.Unlock()
	defer b.removeMetrics(sub)

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-sub.drop:
			return nil
		case resp := <-sub.out:
			if err := stream.Send(resp); err != nil {
				return err
			}
		}
	}
}

func (b *Backend) StartApp(_ context.Context, req *pb.StartAppRequest) (*pb.StartAppResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	app, ok := b.apps[req.AppID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "app %q not found", req.AppID)
	}
	b.started = append(b.started, req.AppID)
	next := *app
	next.Status = pb.AppStatusRunning
	b.apps[req.AppID] = &next
	return &pb.StartAppResponse{}, nil
}

func (b *Backend) StopApp(_ context.Context, req *pb.StopAppRequest) (*pb.StopAppResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	app, ok := b.apps[req.AppID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "app %q not found", req.AppID)
	}
	b.stopped = append(b.stopped, req.AppID)
	next := *app
	next.Status = pb.AppStatusStopped
	b.apps[req.AppID] = &next
	return &pb.StopAppResponse{}, nil
}

func (b *Backend) removeStatus(sub *statusSub) {
	b.mu.Lock()
	delete(b.statusSubs, sub)
	b.mu.Unlock()
}

func (b *Backend) removeMetrics(sub *metricsSub) {
	b.mu.Lock()
	delete(b.metricSubs, sub)
	b.mu.Unlock()
}

// Server is a running gRPC server hosting a Backend.
type Server struct {
	*Backend
	Addr string
	srv  *grpc.Server
}

// Serve starts b on lis with the tracing interceptors installed.
func Serve(lis net.Listener, b *Backend) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.ServerUnaryInterceptor()),
		grpc.ChainStreamInterceptor(tracing.ServerStreamInterceptor()),
	)
	pb.RegisterDashboardServer(srv, b)
	log := hwlog.For("dashboardtest")
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Warn("serve stopped", "error", err)
		}
	}()
	log.Debug("backend listening", "addr", lis.Addr().String())
	return &Server{Backend: b, Addr: lis.Addr().String(), srv: srv}
}

// Start listens on a free loopback port.
func Start(b *Backend) (*Server, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return Serve(lis, b), nil
}

// Stop ends all streams and stops the server.
func (s *Server) Stop() {
	s.DropStreams()
	s.srv.Stop()
}
