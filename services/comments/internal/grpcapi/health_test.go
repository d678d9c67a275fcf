package grpcapi

import (
	"context"
	"errors"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func status(t *testing.T, h *Health, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_FollowsReadiness(t *testing.T) {
	var readyErr error
	h := NewHealth("comments", func() error { return readyErr }, nil)

	if got := status(t, h, "comments"); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", got)
	}

	readyErr = errors.New("breaker open")
	h.Check()
	if got := status(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", got)
	}

	readyErr = nil
	h.Check()
	if got := status(t, h, "comments"); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING again, got %s", got)
	}
}

func TestHealth_RunShutsDown(t *testing.T) {
	h := NewHealth("comments", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := status(t, h, "comments"); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING after shutdown, got %s", got)
	}
}

func TestNewServer_RegistersHealth(t *testing.T) {
	s := NewServer(NewHealth("comments", nil, nil))
	defer s.Stop()
	if _, ok := s.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]; !ok {
		t.Fatal("health service not registered")
	}
}
