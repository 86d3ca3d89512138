package tracex

import (
	"context"
	"testing"
)

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "t-1")
	if got, ok := TraceIDFrom(ctx); !ok || got != "t-1" {
		t.Fatalf("期望 TraceIDFrom round-trip 成功，got=%q ok=%v", got, ok)
	}
}

func TestEnsure_保留已有trace并设置span(t *testing.T) {
	ctx := Ensure(WithTraceID(context.Background(), "t-keep"), "tick")
	if got, _ := TraceIDFrom(ctx); got != "t-keep" {
		t.Fatalf("期望保留已有 trace_id, got=%q", got)
	}
	if got, _ := SpanIDFrom(ctx); got != "tick" {
		t.Fatalf("期望 span=tick, got=%q", got)
	}

	fresh := Ensure(context.Background(), "")
	if got, ok := TraceIDFrom(fresh); !ok || len(got) != 32 {
		t.Fatalf("期望生成 32 位 hex trace_id, got=%q", got)
	}
	if _, ok := SpanIDFrom(fresh); ok {
		t.Fatalf("期望空 span 不写入")
	}
}
