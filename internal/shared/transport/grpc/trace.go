package grpc

import (
	"context"

	"Polis/modules/kit/logx"
	"Polis/modules/kit/tracex"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	traceIDHeader = "x-trace-id"
	spanIDHeader  = "x-span-id"
	callerHeader  = "x-polis-caller"
)

// worker 回填到健康检查响应头里的状态。
const (
	LastRunHeader   = "x-polis-last-run"
	TickCountHeader = "x-polis-tick-count"
	LastErrorHeader = "x-polis-last-error"
)

// Annotator 返回写进响应头的 worker 状态，nil 或空 map 时不写。
type Annotator func(ctx context.Context) map[string]string

// clientTrace 给出站请求带上 trace 与调用方；ctx 里没有 trace_id 时补一个，
// 两端日志用同一个 trace_id 对上。
func clientTrace(caller string) gogrpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *gogrpc.ClientConn,
		invoker gogrpc.UnaryInvoker,
		opts ...gogrpc.CallOption,
	) error {
		return invoker(outgoing(ctx, caller), method, req, reply, cc, opts...)
	}
}

// serverTrace 提取 trace 与调用方，回填 worker 状态，并按 trace 记一条请求日志。
func serverTrace(log logx.Logger, annotator func() Annotator) gogrpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *gogrpc.UnaryServerInfo,
		handler gogrpc.UnaryHandler,
	) (any, error) {
		ctx, caller := incoming(ctx)
		if fn := annotator(); fn != nil {
			if kv := fn(ctx); len(kv) > 0 {
				_ = gogrpc.SetHeader(ctx, metadata.New(kv))
			}
		}
		resp, err := handler(ctx, req)
		log.WithContext(ctx).Debug("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("caller", caller),
			zap.Error(err),
		)
		return resp, err
	}
}

func outgoing(ctx context.Context, caller string) context.Context {
	ctx = tracex.Ensure(ctx, "")
	kv := make([]string, 0, 6)
	if traceID, ok := tracex.TraceIDFrom(ctx); ok {
		kv = append(kv, traceIDHeader, traceID)
	}
	if spanID, ok := tracex.SpanIDFrom(ctx); ok {
		kv = append(kv, spanIDHeader, spanID)
	}
	if caller != "" {
		kv = append(kv, callerHeader, caller)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

func incoming(ctx context.Context) (context.Context, string) {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := first(md, traceIDHeader); v != "" {
		ctx = tracex.WithTraceID(ctx, v)
	}
	span := first(md, spanIDHeader)
	if span == "" {
		span = "grpc"
	}
	return tracex.Ensure(ctx, span), first(md, callerHeader)
}

// HeaderValue 取响应头里的第一个值，polisctl 展示 worker 状态时用。
func HeaderValue(md metadata.MD, key string) string {
	return first(md, key)
}

func first(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
