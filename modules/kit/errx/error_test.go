package errx

import (
	"errors"
	"fmt"
	"testing"
)

type testReason string

func (r testReason) ReasonCode() string { return string(r) }

func TestError_Is_只按code比较语义(t *testing.T) {
	e1 := NewBiz("BIZ_X", "x").WithData("k", "v").WithCause(errors.New("cause1"))
	e2 := NewBiz("BIZ_X", "x2").WithData("k2", "v2")
	if !errors.Is(e1, e2) {
		t.Fatalf("期望 errors.Is(e1, e2)==true, e1=%v e2=%v", e1, e2)
	}
	if errors.Is(e1, NewBiz("BIZ_Y", "x")) {
		t.Fatalf("期望不同 code 不匹配")
	}
}

func TestError_业务错误不捕获栈_但保留cause链(t *testing.T) {
	cause := errors.New("db down")
	err := NewBiz("BIZ_QUEUE_FULL", "队列已满").WithCause(cause)
	if got := err.Stack(); got != nil {
		t.Fatalf("期望业务错误不捕获栈，got=%v", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("期望 cause 链不丢，err=%v", err)
	}
}

func TestError_系统错误只捕获一次栈(t *testing.T) {
	sys := NewSys("SYS_DB", "存储不可用").WithCause(errors.New("io timeout"))
	if len(sys.Stack()) == 0 {
		t.Fatalf("期望系统错误在挂 cause 时捕获栈")
	}
	outer := NewSys("SYS_OUTER", "外层").WithCause(sys)
	if got := outer.Stack(); got != nil {
		t.Fatalf("期望 cause 链里已有栈时不重复捕获，got=%v", got)
	}
}

func TestError_派生不污染哨兵(t *testing.T) {
	base := NewBiz("BIZ_X", "")
	derived := base.WithReason(testReason("R1")).WithMsg("新文案")
	if base.Data() != nil || base.Msg() != "" {
		t.Fatalf("期望哨兵错误保持原样，base=%v", base)
	}
	if derived.Reason() != "R1" || derived.Msg() != "新文案" {
		t.Fatalf("期望派生对象带 reason 与 msg，got reason=%q msg=%q", derived.Reason(), derived.Msg())
	}
}

func TestError_Data_防止外部map污染(t *testing.T) {
	m := map[string]any{"k": "v"}
	err := NewBiz("BIZ_X", "").WithDataMap(m)
	m["k"] = "mutated"
	if got := err.Data()["k"]; got != "v" {
		t.Fatalf("期望构造时复制 data，got=%v", got)
	}
}

func TestAs_能穿透fmt包装(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrUnavailable.WithData("op", "x"))
	e, ok := As(err)
	if !ok || e.Code() != CodeUnavailable {
		t.Fatalf("期望取出 SERVICE_UNAVAILABLE，got=%v ok=%v", e, ok)
	}
	if IsBiz(err) {
		t.Fatalf("期望系统错误 IsBiz==false")
	}
	if !IsBiz(NewBiz("BIZ_X", "")) {
		t.Fatalf("期望业务错误 IsBiz==true")
	}
}
