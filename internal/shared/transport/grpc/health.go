package grpc

import (
	"fmt"
	"net"
	"sync"

	"Polis/modules/kit/logx"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TickServiceName 是 tick worker 在 health 服务里登记的名字。
const TickServiceName = "polis.tick"

// HealthServer 只暴露标准 grpc health，用于 worker 存活探测。
type HealthServer struct {
	srv    *gogrpc.Server
	health *health.Server
	log    logx.Logger

	mu       sync.RWMutex
	annotate Annotator
}

func NewHealthServer(log logx.Logger) *HealthServer {
	if log == nil {
		log = logx.Nop()
	}
	s := &HealthServer{health: health.NewServer(), log: log}
	s.srv = gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(serverTrace(log, s.annotator)))
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus(TickServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Annotate 设置回填到每次健康检查响应头的 worker 状态。
func (s *HealthServer) Annotate(fn Annotator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotate = fn
}

func (s *HealthServer) annotator() Annotator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.annotate
}

// SetServing 切换 tick 服务的状态，空串服务名始终是 SERVING。
func (s *HealthServer) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(TickServiceName, st)
}

// Serve 阻塞直到 Stop。
func (s *HealthServer) Serve(lis net.Listener) error {
	s.log.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// DialHealth 建立到 worker 的连接并返回 health client，caller 会出现在 worker 的请求日志里。
func DialHealth(addr, caller string) (*gogrpc.ClientConn, healthpb.HealthClient, error) {
	opts := []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithChainUnaryInterceptor(clientTrace(caller)),
	}
	conn, err := gogrpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("dial tick worker failed: %w", err)
	}
	return conn, healthpb.NewHealthClient(conn), nil
}
