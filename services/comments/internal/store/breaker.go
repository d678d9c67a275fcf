package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures BreakerRecords.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	Timeout          time.Duration // how long the breaker stays open
	Logger           *zap.Logger
}

// BreakerRecords guards a remote backend with a circuit breaker. While the
// breaker is open every call fails fast with ErrBackendUnavailable.
type BreakerRecords struct {
	next Records
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerRecords(next Records, s BreakerSettings) *BreakerRecords {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	threshold := s.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &BreakerRecords{next: next, cb: cb}
}

type getResult struct {
	value []byte
	ok    bool
}

func (b *BreakerRecords) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		v, ok, err := b.next.Get(ctx, key)
		return getResult{value: v, ok: ok}, err
	})
	if err != nil {
		return nil, false, translateBreakerErr(err)
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (b *BreakerRecords) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Put(ctx, key, value)
	})
	return translateBreakerErr(err)
}

// State exposes the breaker state for readiness checks.
func (b *BreakerRecords) State() gobreaker.State {
	return b.cb.State()
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}
