package sim

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner ticks every session of a Registry on a fixed interval.
// Each tick hands a session the real time elapsed since the previous tick.
//
// Invariant: sessions are ticked sequentially from the runner goroutine, at most
// once per interval.
type Runner struct {
	interval time.Duration
	registry *Registry
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunner returns a runner that ticks the sessions of registry every interval.
//
// Precondition: interval must be > 0; registry and logger must be non-nil.
func NewRunner(interval time.Duration, registry *Registry, logger *zap.Logger) *Runner {
	if interval <= 0 {
		panic("sim.NewRunner: interval must be > 0")
	}
	return &Runner{
		interval: interval,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// TickAll advances every registered session by dt.
func (r *Runner) TickAll(ctx context.Context, dt time.Duration) {
	for _, sess := range r.registry.All() {
		sess.Tick(ctx, dt)
	}
}

// Start begins the tick loop in a new goroutine. Runs until ctx is cancelled.
//
// Postcondition: done is closed after the loop has exited.
func (r *Runner) Start(ctx context.Context) (done <-chan struct{}) {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		r.Run(ctx)
	}()
	return ch
}

// Run executes the tick loop on the calling goroutine until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := r.now()
	r.logger.Info("runner started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped")
			return
		case <-ticker.C:
			now := r.now()
			elapsed := now.Sub(last)
			last = now
			r.TickAll(ctx, elapsed)
		}
	}
}
