package logs

import (
	"context"
	"errors"
	"testing"
	"time"

	"Polis/modules/kit/tracex"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	glogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace_错误与慢查询(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLoggerWith(zap.New(core), glogger.Warn, 10*time.Millisecond)
	ctx := tracex.WithTraceID(context.Background(), "t-9")

	sqlFn := func() (string, int64) { return "SELECT 1", 1 }
	gl.Trace(ctx, time.Now(), sqlFn, errors.New("boom"))
	gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn, nil)
	gl.Trace(ctx, time.Now(), sqlFn, glogger.ErrRecordNotFound)

	entries := recorded.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("期望记录错误与慢查询两条（RecordNotFound 不算错误），got=%d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("级别不符合预期: %v %v", entries[0].Level, entries[1].Level)
	}
	if entries[0].ContextMap()["trace_id"] != "t-9" {
		t.Fatalf("期望带上 trace_id, got=%v", entries[0].ContextMap())
	}
}

func TestGormLogger_Silent不输出(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLoggerWith(zap.New(core), glogger.Warn, 0).LogMode(glogger.Silent)
	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "x", 0 }, errors.New("boom"))
	if recorded.Len() != 0 {
		t.Fatalf("期望 Silent 模式不输出, got=%d", recorded.Len())
	}
}

func TestSetLevel_非法值回退info(t *testing.T) {
	SetLevel("not-a-level")
	if atomicLevel.Level() != zapcore.InfoLevel {
		t.Fatalf("期望回退 info, got=%v", atomicLevel.Level())
	}
	SetLevel("DEBUG")
	if atomicLevel.Level() != zapcore.DebugLevel {
		t.Fatalf("期望 debug, got=%v", atomicLevel.Level())
	}
	SetLevel("info")
}
