package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health-check name of the reservation backend. The empty
// name reports the same status.
const ServiceName = "cabinet.v1.Reservations"

const defaultRequestTimeout = 10 * time.Second

// Server is the ops listener: standard gRPC health checks for orchestrators and load
// balancers.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

func New(log *slog.Logger, requestTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			defaultRequestTimeoutInterceptor(requestTimeout),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	srv := &Server{grpc: s, health: hs, log: log}
	srv.SetServing(false)
	return srv
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchReadiness runs check on every tick and mirrors the result into the health
// status until ctx is done. The first check runs immediately.
func (s *Server) WatchReadiness(ctx context.Context, check func(context.Context) error, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := false
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()

		if ready := err == nil; ready != serving {
			serving = ready
			s.SetServing(ready)
			if ready {
				s.log.Info("readiness check passing")
			} else {
				s.log.Warn("readiness check failing", slog.Any("err", err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown flips health to NOT_SERVING, then stops gracefully, forcing the
// stop once timeout elapses.
func (s *Server) Shutdown(timeout time.Duration) {
	s.log.Info("shutting down grpc server", slog.Duration("timeout", timeout))
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info("grpc server stopped")
	case <-timer.C:
		s.log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.grpc.Stop()
	}
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		args := []any{
			slog.String("rpc", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if err != nil {
			log.Warn("grpc request failed", append(args, slog.Any("err", err))...)
		} else {
			log.Debug("grpc request", args...)
		}
		return resp, err
	}
}
