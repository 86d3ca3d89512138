package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/bootstrap"
	"Polis/internal/economy/interfaces"
	"Polis/internal/economy/interfaces/handler"
	"Polis/internal/economy/scheduler"
	"Polis/internal/shared/logs"
	"Polis/internal/shared/serverconfig"
	transporthttp "Polis/internal/shared/transport/http"
	"Polis/internal/shared/transport/ws"
	"Polis/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	serverconfig.Load()
	if err := logs.Init("economy", serverconfig.Conf.Log); err != nil {
		panic(err)
	}
	logs.Info("conf", zap.Any("conf", serverconfig.Conf.Redacted()))
	serverconfig.OnReload(func(c serverconfig.Config) {
		logs.SetLevel(c.Log.Level)
		logs.Info("config reloaded", zap.String("log_level", c.Log.Level))
	})
	cfg := serverconfig.Current()

	deps, err := bootstrap.Open(cfg, logs.Logger())
	if err != nil {
		logs.Fatal("bootstrap economy failed", zap.Error(err))
	}
	defer deps.Close()
	logs.Info("building catalog loaded", zap.String("title", deps.Catalog.Title()))

	log := logx.NewZapLogger(logs.Logger())
	eco := &handler.Economy{Journal: deps.Journal, Log: log}
	hub := ws.NewHub()
	mod := interfaces.New(eco, cfg.TickToken, hub, cfg.Push.NeedSecret)

	var tickOpts []app.TickOption
	if cfg.Push.Enabled {
		tickOpts = append(tickOpts, app.WithNotifier(mod.Notifier()))
	}
	ticks, err := deps.TickService(tickOpts...)
	if err != nil {
		logs.Fatal("init tick service failed", zap.Error(err))
	}

	// 进程内调度时，手动 tick 也走调度器，保证同一时刻只有一次 tick 在跑。
	var runner app.TickRunner = ticks
	var rt *scheduler.Runtime
	if cfg.Economy.SchedulerEnabled {
		rt = scheduler.NewRuntime(ticks, scheduler.Config{Interval: cfg.Economy.TickInterval}, log)
		runner = rt
		eco.Scheduler = rt
		logs.Info("tick scheduler started", zap.Duration("interval", cfg.Economy.TickInterval))
	}
	eco.Ticks = runner
	eco.Econ = deps.EconomyService(runner)

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	host := cfg.HTTPServer.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, cfg.HTTPServer.Port)
	srv := transporthttp.NewHttpServer(addr, nil, log)
	mod.HttpRegister(srv.Group())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logs.Info("economy http server started", zap.String("addr", addr))
		if err := srv.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- fmt.Errorf("economy http serve failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		logs.Error("服务异常退出", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Error("http shutdown failed", zap.Error(err))
	}
	if rt != nil {
		rt.Shutdown()
	}
	logs.Sync()
}
