package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

const (
	DefaultInterval     = 15 * time.Second
	DefaultCycleTimeout = 30 * time.Second
)

type Runner interface {
	RunOnce(ctx context.Context) Result
}

// Scheduler runs the reporter periodically, independent of the control API.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	l logger.Logger
}

func NewScheduler(runner Runner, interval, timeout time.Duration, l logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultCycleTimeout
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		l:        l,
	}
}

// Start launches the loop. The first cycle runs immediately. Calling Start
// on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)
	s.l.Info(ctx, "location reporter started", "interval", s.interval.String())
}

// Stop ends the loop and waits for the running cycle to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.cycle(ctx)

		select {
		case <-ctx.Done():
			s.l.Info(ctx, "location reporter stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.runner.RunOnce(ctx)
}

type StatusLoader interface {
	LoadAvailabilityStatus(ctx context.Context) (types.AvailabilityStatus, error)
}

// StatusGate skips cycles while the persisted status says the driver is
// offline. The standalone reporter process has no synchronizer to stop it.
type StatusGate struct {
	runner Runner
	store  StatusLoader
}

func NewStatusGate(runner Runner, store StatusLoader) *StatusGate {
	return &StatusGate{
		runner: runner,
		store:  store,
	}
}

func (g *StatusGate) RunOnce(ctx context.Context) Result {
	status, err := g.store.LoadAvailabilityStatus(ctx)
	if err == nil && status == types.StatusNotAvailable {
		return ResultNoData
	}
	return g.runner.RunOnce(ctx)
}
