// Package grpcapi exposes the standard gRPC health service for the comments
// process, driven by storage readiness.
package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Health mirrors a readiness probe into the gRPC health service.
type Health struct {
	srv     *health.Server
	service string
	ready   func() error
	log     *zap.Logger
}

func NewHealth(service string, ready func() error, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Health{srv: health.NewServer(), service: service, ready: ready, log: log}
	h.Check()
	return h
}

// NewServer builds a gRPC server with health and reflection registered.
func NewServer(h *Health) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}

// Check evaluates readiness once and publishes the result for both the
// named service and the server as a whole.
func (h *Health) Check() healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if h.ready != nil {
		if err := h.ready(); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			h.log.Debug("not ready", zap.Error(err))
		}
	}
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(h.service, st)
	return st
}

// Run re-checks readiness every interval until ctx is done, then marks
// everything NOT_SERVING.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check()
		}
	}
}
