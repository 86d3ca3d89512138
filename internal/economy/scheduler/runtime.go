package scheduler

import (
	"context"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/modules/kit/errx"
	"Polis/modules/kit/logx"

	protoactor "github.com/asynkron/protoactor-go/actor"
)

const (
	defaultInterval   = 60 * time.Second
	defaultRunTimeout = 50 * time.Second
	defaultAskTimeout = 3 * time.Second
)

// Config 控制调度节奏。Interval < 0 表示不启动定时循环，只接受手动触发。
type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
	AskTimeout time.Duration
	Clock      func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = defaultInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaultRunTimeout
	}
	if c.AskTimeout <= 0 {
		c.AskTimeout = defaultAskTimeout
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Runtime 持有 actor system 与 tick actor。
type Runtime struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	tick    *protoactor.PID
	timeout time.Duration
	// 手动触发要等一次完整的 tick，可能比普通请求久。
	triggerTimeout time.Duration
}

func NewRuntime(runner app.TickRunner, cfg Config, log logx.Logger) *Runtime {
	cfg = cfg.withDefaults()

	system := protoactor.NewActorSystem()
	root := system.Root
	props := protoactor.PropsFromProducer(func() protoactor.Actor {
		return NewTickActor(runner, cfg, log)
	})
	pid := root.Spawn(props)

	return &Runtime{
		system:  system,
		root:    root,
		tick:    pid,
		timeout: cfg.AskTimeout,
		// 最坏情况下排在一次正在执行的 tick 后面
		triggerTimeout: 2*cfg.RunTimeout + cfg.AskTimeout,
	}
}

func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.tick != nil {
		r.root.Stop(r.tick)
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

// RunTick 让 Runtime 也满足 app.TickRunner，CheckDue 经由它触发时同样被串行化。
func (r *Runtime) RunTick(ctx context.Context, _ time.Time, trigger model.Trigger) (model.TickReport, error) {
	return r.Trigger(ctx, trigger)
}

// Trigger 请求立即执行一次 tick 并等待结果。
func (r *Runtime) Trigger(ctx context.Context, trigger model.Trigger) (model.TickReport, error) {
	res, err := r.request(ctx, &triggerRequest{Trigger: trigger}, r.triggerTimeout)
	if err != nil {
		return model.TickReport{}, err
	}
	out, ok := res.(*triggerResult)
	if !ok || out == nil {
		return model.TickReport{}, errx.ErrInternal.WithMsg("tick actor 返回了未知消息")
	}
	return out.Report, out.Err
}

func (r *Runtime) Status(ctx context.Context) (model.SchedulerStatus, error) {
	res, err := r.request(ctx, &statusRequest{}, r.timeout)
	if err != nil {
		return model.SchedulerStatus{}, err
	}
	st, ok := res.(model.SchedulerStatus)
	if !ok {
		return model.SchedulerStatus{}, errx.ErrInternal.WithMsg("tick actor 返回了未知消息")
	}
	return st, nil
}

func (r *Runtime) request(ctx context.Context, msg any, timeout time.Duration) (any, error) {
	if r == nil || r.root == nil || r.tick == nil {
		return nil, errx.ErrUnavailable.WithMsg("tick 调度器未初始化")
	}
	res, err := r.root.RequestFuture(r.tick, msg, timeoutFromContext(ctx, timeout)).Result()
	if err != nil {
		return nil, errx.ErrTimeout.WithData("op", "scheduler.request").WithCause(err)
	}
	return res, nil
}

func timeoutFromContext(ctx context.Context, fallback time.Duration) time.Duration {
	if ctx == nil {
		return fallback
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < fallback {
		return remain
	}
	return fallback
}

var _ app.TickRunner = (*Runtime)(nil)
