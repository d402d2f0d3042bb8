package dashboardpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Dashboard_AppsList_FullMethodName    = "/dashboard.Dashboard/AppsList"
	Dashboard_AppsInfo_FullMethodName    = "/dashboard.Dashboard/AppsInfo"
	Dashboard_AppsMetrics_FullMethodName = "/dashboard.Dashboard/AppsMetrics"
	Dashboard_StartApp_FullMethodName    = "/dashboard.Dashboard/StartApp"
	Dashboard_StopApp_FullMethodName     = "/dashboard.Dashboard/StopApp"
)

// DashboardClient is the client API for the Dashboard service.
type DashboardClient interface {
	AppsList(ctx context.Context, in *AppsListRequest, opts ...grpc.CallOption) (*AppsListResponse, error)
	AppsInfo(ctx context.Context, in *AppsInfoRequest, opts ...grpc.CallOption) (Dashboard_AppsInfoClient, error)
	AppsMetrics(ctx context.Context, in *AppsMetricsRequest, opts ...grpc.CallOption) (Dashboard_AppsMetricsClient, error)
	StartApp(ctx context.Context, in *StartAppRequest, opts ...grpc.CallOption) (*StartAppResponse, error)
	StopApp(ctx context.Context, in *StopAppRequest, opts ...grpc.CallOption) (*StopAppResponse, error)
}

type dashboardClient struct {
	cc grpc.ClientConnInterface
}

// NewDashboardClient binds a client to cc. Every call is sent with the
// CBOR content-subtype.
func NewDashboardClient(cc grpc.ClientConnInterface) DashboardClient {
	return &dashboardClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *dashboardClient) AppsList(ctx context.Context, in *AppsListRequest, opts ...grpc.CallOption) (*AppsListResponse, error) {
	out := new(AppsListResponse)
	if err := c.cc.Invoke(ctx, Dashboard_AppsList_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardClient) AppsInfo(ctx context.Context, in *AppsInfoRequest, opts ...grpc.CallOption) (Dashboard_AppsInfoClient, error) {
	stream, err := c.cc.NewStream(ctx, &Dashboard_ServiceDesc.Streams[0], Dashboard_AppsInfo_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &dashboardAppsInfoClient{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Dashboard_AppsInfoClient interface {
	Recv() (*AppsInfoResponse, error)
	grpc.ClientStream
}

type dashboardAppsInfoClient struct {
	grpc.ClientStream
}

func (x *dashboardAppsInfoClient) Recv() (*AppsInfoResponse, error) {
	m := new(AppsInfoResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *dashboardClient) AppsMetrics(ctx context.Context, in *AppsMetricsRequest, opts ...grpc.CallOption) (Dashboard_AppsMetricsClient, error) {
	stream, err := c.cc.NewStream(ctx, &Dashboard_ServiceDesc.Streams[1], Dashboard_AppsMetrics_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &dashboardAppsMetricsClient{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Dashboard_AppsMetricsClient interface {
	Recv() (*AppMetricsResponse, error)
	grpc.ClientStream
}

type dashboardAppsMetricsClient struct {
	grpc.ClientStream
}

func (x *dashboardAppsMetricsClient) Recv() (*AppMetricsResponse, error) {
	m := new(AppMetricsResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *dashboardClient) StartApp(ctx context.Context, in *StartAppRequest, opts ...grpc.CallOption) (*StartAppResponse, error) {
	out := new(StartAppResponse)
	if err := c.cc.Invoke(ctx, Dashboard_StartApp_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardClient) StopApp(ctx context.Context, in *StopAppRequest, opts ...grpc.CallOption) (*StopAppResponse, error) {
	out := new(StopAppResponse)
	if err := c.cc.Invoke(ctx, Dashboard_StopApp_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// DashboardServer is the server API for the Dashboard service.
type DashboardServer interface {
	AppsList(context.Context, *AppsListRequest) (*AppsListResponse, error)
	AppsInfo(*AppsInfoRequest, Dashboard_AppsInfoServer) error
	AppsMetrics(*AppsMetricsRequest, Dashboard_AppsMetricsServer) error
	StartApp(context.Context, *StartAppRequest) (*StartAppResponse, error)
	StopApp(context.Context, *StopAppRequest) (*StopAppResponse, error)
}

// UnimplementedDashboardServer can be embedded to satisfy DashboardServer
// with methods that return codes.Unimplemented.
type UnimplementedDashboardServer struct{}

func (UnimplementedDashboardServer) AppsList(context.Context, *AppsListRequest) (*AppsListResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AppsList not implemented")
}

func (UnimplementedDashboardServer) AppsInfo(*AppsInfoRequest, Dashboard_AppsInfoServer) error {
	return status.Errorf(codes.Unimplemented, "method AppsInfo not implemented")
}

func (UnimplementedDashboardServer) AppsMetrics(*AppsMetricsRequest, Dashboard_AppsMetricsServer) error {
	return status.Errorf(codes.Unimplemented, "method AppsMetrics not implemented")
}

func (UnimplementedDashboardServer) StartApp(context.Context, *StartAppRequest) (*StartAppResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartApp not implemented")
}

func (UnimplementedDashboardServer) StopApp(context.Context, *StopAppRequest) (*StopAppResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StopApp not implemented")
}

func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&Dashboard_ServiceDesc, srv)
}

func _Dashboard_AppsList_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AppsListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).AppsList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Dashboard_AppsList_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).AppsList(ctx, req.(*AppsListRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dashboard_StartApp_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartAppRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).StartApp(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Dashboard_StartApp_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).StartApp(ctx, req.(*StartAppRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dashboard_StopApp_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StopAppRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).StopApp(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Dashboard_StopApp_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).StopApp(ctx, req.(*StopAppRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dashboard_AppsInfo_Handler(srv any, stream grpc.ServerStream) error {
	m := new(AppsInfoRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DashboardServer).AppsInfo(m, &dashboardAppsInfoServer{ServerStream: stream})
}

type Dashboard_AppsInfoServer interface {
	Send(*AppsInfoResponse) error
	grpc.ServerStream
}

type dashboardAppsInfoServer struct {
	grpc.ServerStream
}

func (x *dashboardAppsInfoServer) Send(m *AppsInfoResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _Dashboard_AppsMetrics_Handler(srv any, stream grpc.ServerStream) error {
	m := new(AppsMetricsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DashboardServer).AppsMetrics(m, &dashboardAppsMetricsServer{ServerStream: stream})
}

type Dashboard_AppsMetricsServer interface {
	Send(*AppMetricsResponse) error
	grpc.ServerStream
}

type dashboardAppsMetricsServer struct {
	grpc.ServerStream
}

func (x *dashboardAppsMetricsServer) Send(m *AppMetricsResponse) error {
	return x.ServerStream.SendMsg(m)
}

// Dashboard_ServiceDesc is the grpc.ServiceDesc for the Dashboard service.
var Dashboard_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dashboard.Dashboard",
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AppsList", Handler: _Dashboard_AppsList_Handler},
		{MethodName: "StartApp", Handler: _Dashboard_StartApp_Handler},
		{MethodName: "StopApp", Handler: _Dashboard_StopApp_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "AppsInfo", Handler: _Dashboard_AppsInfo_Handler, ServerStreams: true},
		{StreamName: "AppsMetrics", Handler: _Dashboard_AppsMetrics_Handler, ServerStreams: true},
	},
	Metadata: "dashboard.proto",
}
