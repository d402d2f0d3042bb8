package tracing

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SubscriberHeader names the subscription that opened a stream. The
// client sets it; server spans record it.
const SubscriberHeader = "x-hivewatch-subscriber"

// parseMethod splits "/package.Service/Method" into its two parts.
func parseMethod(fullMethod string) (service, method string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if idx := strings.LastIndex(fullMethod, "/"); idx >= 0 {
		return fullMethod[:idx], fullMethod[idx+1:]
	}
	return fullMethod, ""
}

func rpcAttributes(fullMethod string) []attribute.KeyValue {
	service, method := parseMethod(fullMethod)
	return []attribute.KeyValue{
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.service", service),
		attribute.String("rpc.method", method),
	}
}

func subscriberAttributes(md metadata.MD, ok bool) []attribute.KeyValue {
	if !ok {
		return nil
	}
	if vals := md.Get(SubscriberHeader); len(vals) > 0 {
		return []attribute.KeyValue{attribute.String("hivewatch.subscriber", vals[0])}
	}
	return nil
}

// recordError sets the span status from err. A graceful stream end
// (io.EOF) counts as success.
func recordError(span trace.Span, err error) {
	if err == nil || errors.Is(err, io.EOF) {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if st, ok := status.FromError(err); ok {
		span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
	}
}

// ClientUnaryInterceptor creates a client span per outgoing unary RPC.
func ClientUnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, span := otel.Tracer(tracerName).Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		span.SetAttributes(rpcAttributes(method)...)
		span.SetAttributes(attribute.String("net.peer.name", cc.Target()))

		err := invoker(ctx, method, req, reply, cc, opts...)
		recordError(span, err)
		return err
	}
}

// ClientStreamInterceptor creates a client span per outgoing stream. The
// span stays open for the life of the stream, gets one event per received
// message and ends when RecvMsg returns an error.
func ClientStreamInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(rpcAttributes(method)...)
		span.SetAttributes(attribute.String("net.peer.name", cc.Target()))
		md, ok := metadata.FromOutgoingContext(ctx)
		span.SetAttributes(subscriberAttributes(md, ok)...)

		cs, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			recordError(span, err)
			span.End()
			return nil, err
		}
		return &tracedClientStream{ClientStream: cs, span: span}, nil
	}
}

type tracedClientStream struct {
	grpc.ClientStream
	span trace.Span
	once sync.Once
}

func (s *tracedClientStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if err != nil {
		s.once.Do(func() {
			recordError(s.span, err)
			s.span.End()
		})
		return err
	}
	s.span.AddEvent("message received")
	return nil
}

// ServerUnaryInterceptor creates a server span per incoming unary RPC.
func ServerUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(rpcAttributes(info.FullMethod)...)
		md, ok := metadata.FromIncomingContext(ctx)
		span.SetAttributes(subscriberAttributes(md, ok)...)

		resp, err := handler(ctx, req)
		recordError(span, err)
		return resp, err
	}
}

// ServerStreamInterceptor creates a server span per incoming stream.
func ServerStreamInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, span := otel.Tracer(tracerName).Start(ss.Context(), info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(rpcAttributes(info.FullMethod)...)
		md, ok := metadata.FromIncomingContext(ctx)
		span.SetAttributes(subscriberAttributes(md, ok)...)

		err := handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
		recordError(span, err)
		return err
	}
}

// wrappedServerStream carries the span context into the handler.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
