package scheduler

import (
	"context"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/modules/kit/logx"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// TickActor 串行化进程内的 tick：同一时刻最多一次 RunTick 在执行。
//
// 定时 tick 撞上正在执行的 tick 时直接丢弃；手动触发会排队，
// 等当前这次结束后合并成一次执行，所有等待方拿到同一份结果。
type TickActor struct {
	runner     app.TickRunner
	log        logx.Logger
	clock      func() time.Time
	interval   time.Duration
	runTimeout time.Duration

	loopStop chan struct{}
	running  bool
	waiters  []*actor.PID
	queued   []*actor.PID
	trigger  model.Trigger
	status   model.SchedulerStatus
}

func NewTickActor(runner app.TickRunner, cfg Config, log logx.Logger) *TickActor {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logx.Nop()
	}
	return &TickActor{
		runner:     runner,
		log:        log.With(zap.String("component", "tick_scheduler")),
		clock:      cfg.Clock,
		interval:   cfg.Interval,
		runTimeout: cfg.RunTimeout,
		status:     model.SchedulerStatus{Interval: cfg.Interval},
	}
}

func (a *TickActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.status.StartedAt = a.clock().UTC()
		a.startLoop(ctx)
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
		a.stopLoop()
	case scheduledTick:
		if a.running {
			a.status.Skipped++
			a.log.Debug("scheduled tick skipped, previous run still in progress")
			return
		}
		a.start(ctx, model.TriggerScheduler)
	case *triggerRequest:
		if a.running {
			a.queued = append(a.queued, ctx.Sender())
			a.trigger = msg.Trigger
			return
		}
		a.start(ctx, msg.Trigger, ctx.Sender())
	case *tickDone:
		a.done(ctx, msg)
	case *statusRequest:
		st := a.status
		st.Running = a.running
		ctx.Respond(st)
	}
}

func (a *TickActor) start(ctx actor.Context, trigger model.Trigger, waiters ...*actor.PID) {
	a.running = true
	for _, w := range waiters {
		if w != nil {
			a.waiters = append(a.waiters, w)
		}
	}

	now := a.clock()
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	runner, timeout := a.runner, a.runTimeout
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := runner.RunTick(runCtx, now, trigger)
		root.Send(self, &tickDone{Report: report, Err: err})
	}()
}

func (a *TickActor) done(ctx actor.Context, msg *tickDone) {
	a.running = false
	a.status.TickCount++
	report := msg.Report
	a.status.LastReport = &report
	a.status.LastError = ""
	if msg.Err != nil {
		a.status.Failed++
		a.status.LastError = msg.Err.Error()
	}

	res := &triggerResult{Report: msg.Report, Err: msg.Err}
	for _, w := range a.waiters {
		ctx.Send(w, res)
	}
	a.waiters = nil

	if len(a.queued) > 0 {
		next := a.queued
		a.queued = nil
		a.start(ctx, a.trigger, next...)
	}
}

func (a *TickActor) startLoop(ctx actor.Context) {
	if a.loopStop != nil || a.interval <= 0 {
		return
	}
	a.loopStop = make(chan struct{})
	self := ctx.Self()
	root := ctx.ActorSystem().Root

	go func(stop <-chan struct{}, every time.Duration) {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				root.Send(self, scheduledTick{})
			case <-stop:
				return
			}
		}
	}(a.loopStop, a.interval)
}

func (a *TickActor) stopLoop() {
	if a.loopStop == nil {
		return
	}
	close(a.loopStop)
	a.loopStop = nil
}
