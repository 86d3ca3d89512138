package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/internal/economy/bootstrap"
	"Polis/internal/economy/scheduler"
	"Polis/internal/shared/logs"
	"Polis/internal/shared/serverconfig"
	transportgrpc "Polis/internal/shared/transport/grpc"
	"Polis/modules/kit/logx"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loop       bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run the economy tick once, or keep a scheduler loop with --loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverconfig.LoadFrom(configPath)
		if err := logs.Init("tick", serverconfig.Conf.Log); err != nil {
			return err
		}
		defer logs.Sync()
		logs.Info("conf", zap.Any("conf", serverconfig.Conf.Redacted()))
		serverconfig.OnReload(func(c serverconfig.Config) { logs.SetLevel(c.Log.Level) })

		cfg := serverconfig.Current()
		deps, err := bootstrap.Open(cfg, logs.Logger())
		if err != nil {
			return fmt.Errorf("bootstrap economy: %w", err)
		}
		defer deps.Close()

		ticks, err := deps.TickService()
		if err != nil {
			return err
		}
		if !loop {
			return runOnce(cmd.Context(), ticks)
		}
		return runLoop(cmd.Context(), cfg, ticks)
	},
}

func runOnce(ctx context.Context, ticks app.TickRunner) error {
	report, err := ticks.RunTick(ctx, time.Now().UTC(), model.TriggerCLI)
	if err != nil {
		return fmt.Errorf("tick failed: %w", err)
	}
	logs.Info("tick done",
		zap.Int64("run_id", report.RunID),
		zap.Int("buildings_finalized", report.BuildingsFinalized),
		zap.Int("cities_updated", report.CitiesUpdated),
		zap.Int("cities_scanned", report.CitiesScanned),
		zap.Int("failures", report.Failures),
	)
	return nil
}

// runLoop 常驻运行调度器，并在 worker.health_port 暴露 gRPC 健康检查。
func runLoop(ctx context.Context, cfg serverconfig.Config, ticks app.TickRunner) error {
	log := logx.NewZapLogger(logs.Logger())
	rt := scheduler.NewRuntime(ticks, scheduler.Config{Interval: cfg.Economy.TickInterval}, log)
	defer rt.Shutdown()

	host := cfg.Worker.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, cfg.Worker.HealthPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen health grpc failed: %w", err)
	}
	health := transportgrpc.NewHealthServer(log)
	health.Annotate(workerStatus(rt))
	errCh := make(chan error, 1)
	go func() {
		logs.Info("tick worker health server started", zap.String("addr", addr))
		if err := health.Serve(lis); err != nil {
			errCh <- fmt.Errorf("health grpc serve failed: %w", err)
		}
	}()
	health.SetServing(true)
	logs.Info("tick scheduler started", zap.Duration("interval", cfg.Economy.TickInterval))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		logs.Error("服务异常退出", zap.Error(err))
	}
	health.SetServing(false)
	health.Stop()
	return nil
}

// workerStatus 把调度器最近一次 tick 回填到健康检查响应头，
// polisctl health 打印的 run_id 与 worker 的 tick 日志对得上。
func workerStatus(rt *scheduler.Runtime) transportgrpc.Annotator {
	return func(ctx context.Context) map[string]string {
		st, err := rt.Status(ctx)
		if err != nil {
			return nil
		}
		kv := map[string]string{transportgrpc.TickCountHeader: strconv.FormatInt(st.TickCount, 10)}
		if st.LastReport != nil {
			kv[transportgrpc.LastRunHeader] = fmt.Sprintf("%d/%s", st.LastReport.RunID, st.LastReport.Trigger)
		}
		if st.LastError != "" {
			kv[transportgrpc.LastErrorHeader] = st.LastError
		}
		return kv
	}
}

func main() {
	rootCmd.Flags().BoolVarP(&loop, "loop", "l", false, "keep running the tick scheduler")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default configs/conf.yml)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
