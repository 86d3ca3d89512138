package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/modules/kit/logx"
)

type fakeRunner struct {
	calls    atomic.Int64
	inflight atomic.Int64
	maxSeen  atomic.Int64
	gate     chan struct{}
	err      error

	mu       sync.Mutex
	triggers []model.Trigger
}

func (f *fakeRunner) RunTick(ctx context.Context, now time.Time, trigger model.Trigger) (model.TickReport, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	id := f.calls.Add(1)
	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	f.mu.Unlock()
	return model.TickReport{RunID: id, Trigger: trigger, Now: now, BuildingsFinalized: 1}, f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("等待条件超时")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRuntime_手动触发返回本次结果(t *testing.T) {
	runner := &fakeRunner{}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rt := NewRuntime(runner, Config{Interval: -1, Clock: func() time.Time { return now }}, logx.Nop())
	defer rt.Shutdown()

	rep, err := rt.Trigger(context.Background(), model.TriggerManual)
	if err != nil {
		t.Fatalf("Trigger err=%v", err)
	}
	if rep.RunID != 1 || rep.Trigger != model.TriggerManual || !rep.Now.Equal(now) {
		t.Fatalf("期望拿到本次 tick 结果, got=%+v", rep)
	}

	st, err := rt.Status(context.Background())
	if err != nil {
		t.Fatalf("Status err=%v", err)
	}
	if st.Running || st.TickCount != 1 || st.LastReport == nil || st.LastReport.RunID != 1 {
		t.Fatalf("期望状态记录最近一次, got=%+v", st)
	}
}

func TestRuntime_执行中的触发合并且不重叠(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	rt := NewRuntime(runner, Config{Interval: -1}, logx.Nop())
	defer rt.Shutdown()

	results := make(chan model.TickReport, 3)
	go func() {
		rep, _ := rt.Trigger(context.Background(), model.TriggerManual)
		results <- rep
	}()
	waitFor(t, func() bool { return runner.inflight.Load() == 1 })

	st, err := rt.Status(context.Background())
	if err != nil || !st.Running {
		t.Fatalf("期望调度器处于执行中, got=%+v err=%v", st, err)
	}

	for i := 0; i < 2; i++ {
		go func() {
			rep, _ := rt.Trigger(context.Background(), model.TriggerCheck)
			results <- rep
		}()
	}
	// 等两个请求进入 actor 邮箱
	time.Sleep(50 * time.Millisecond)
	close(runner.gate)

	var got []int64
	for i := 0; i < 3; i++ {
		select {
		case rep := <-results:
			got = append(got, rep.RunID)
		case <-time.After(2 * time.Second):
			t.Fatalf("等待触发结果超时")
		}
	}
	if runner.calls.Load() != 2 {
		t.Fatalf("期望排队的两次触发合并为一次, calls=%d", runner.calls.Load())
	}
	if runner.maxSeen.Load() != 1 {
		t.Fatalf("期望 tick 不重叠, max=%d", runner.maxSeen.Load())
	}
	seen := map[int64]int{}
	for _, id := range got {
		seen[id]++
	}
	if seen[1] != 1 || seen[2] != 2 {
		t.Fatalf("期望第一个请求拿到 1，排队的拿到 2, got=%v", got)
	}
}

func TestRuntime_定时循环会触发tick(t *testing.T) {
	runner := &fakeRunner{}
	rt := NewRuntime(runner, Config{Interval: 10 * time.Millisecond}, logx.Nop())
	defer rt.Shutdown()

	waitFor(t, func() bool { return runner.calls.Load() >= 2 })
	runner.mu.Lock()
	trig := runner.triggers[0]
	runner.mu.Unlock()
	if trig != model.TriggerScheduler {
		t.Fatalf("期望定时 tick 标记为 scheduler, got=%s", trig)
	}
}

func TestRuntime_tick失败计入状态(t *testing.T) {
	boom := errors.New("boom")
	runner := &fakeRunner{err: boom}
	rt := NewRuntime(runner, Config{Interval: -1}, logx.Nop())
	defer rt.Shutdown()

	if _, err := rt.Trigger(context.Background(), model.TriggerManual); !errors.Is(err, boom) {
		t.Fatalf("期望原样返回 tick 错误, got=%v", err)
	}
	st, _ := rt.Status(context.Background())
	if st.Failed != 1 || st.LastError == "" {
		t.Fatalf("期望记录失败, got=%+v", st)
	}
}

func TestRuntime_未初始化返回系统错误(t *testing.T) {
	var rt *Runtime
	if _, err := rt.Status(context.Background()); err == nil {
		t.Fatalf("期望返回错误")
	}
}
