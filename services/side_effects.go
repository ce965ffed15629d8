package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chessfam/logger"
	"chessfam/metrics"
)

const defaultSideEffectTimeout = 5 * time.Second

// SideEffects runs best-effort work after an operation has committed. Each
// effect gets one attempt in its own goroutine, detached from the caller's
// cancellation. Failures and panics are logged and counted, never returned.
type SideEffects struct {
	log     *logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewSideEffects(log *logger.Logger, m *metrics.Metrics, timeout time.Duration) *SideEffects {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &SideEffects{log: log, metrics: m, timeout: timeout}
}

// Go schedules fn under name. The context passed to fn keeps the caller's
// values but not its deadline.
func (s *SideEffects) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		if err := s.run(ctx, fn); err != nil {
			s.metrics.SideEffectFailed(name)
			s.log.Warn("best-effort side effect failed", "effect", name, "error", err)
		}
	}()
}

func (s *SideEffects) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every scheduled effect has finished.
func (s *SideEffects) Wait() {
	s.wg.Wait()
}
