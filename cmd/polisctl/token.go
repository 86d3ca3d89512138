package main

import (
	"context"
	"fmt"
	"time"

	"Polis/internal/shared/security"
	"Polis/internal/shared/serverconfig"
	transportgrpc "Polis/internal/shared/transport/grpc"
	"Polis/modules/kit/tracex"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

var (
	tokenUID   string
	tokenTTL   time.Duration
	healthAddr string
	healthWait time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a player (local development)",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverconfig.LoadFrom(configPath)
		tok, err := security.Award(tokenUID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the tick worker health over gRPC",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := transportgrpc.DialHealth(healthAddr, "polisctl")
		if err != nil {
			return err
		}
		defer conn.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), healthWait)
		defer cancel()
		ctx = tracex.Ensure(ctx, "polisctl.health")
		traceID, _ := tracex.TraceIDFrom(ctx)

		var md metadata.MD
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: transportgrpc.TickServiceName}, grpc.Header(&md))
		if err != nil {
			return fmt.Errorf("health check %s (trace_id=%s): %w", healthAddr, traceID, err)
		}
		fmt.Printf("trace_id:   %s\n", traceID)
		fmt.Printf("tick_count: %s\n", orDash(transportgrpc.HeaderValue(md, transportgrpc.TickCountHeader)))
		fmt.Printf("last_run:   %s\n", orDash(transportgrpc.HeaderValue(md, transportgrpc.LastRunHeader)))
		if e := transportgrpc.HeaderValue(md, transportgrpc.LastErrorHeader); e != "" {
			color.Red("last_error: %s", e)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			color.Yellow("%s: %s", transportgrpc.TickServiceName, resp.GetStatus())
			return fmt.Errorf("tick worker not serving")
		}
		color.Green("%s: %s", transportgrpc.TickServiceName, resp.GetStatus())
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUID, "uid", "u", "", "player id")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	healthCmd.Flags().StringVarP(&healthAddr, "addr", "a", "127.0.0.1:9090", "tick worker health address")
	healthCmd.Flags().DurationVar(&healthWait, "timeout", 3*time.Second, "check timeout")
}
