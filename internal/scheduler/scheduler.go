// Package scheduler runs the two independent periodic update loops:
// hardware prices and, when a history store is configured, rental prices.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler owns the hardware and rental periodic loops described in
// spec.md §4.6: run once synchronously at startup, then tick on their
// own intervals, never overlapping themselves.
type Scheduler struct {
	hardwareInterval time.Duration
	rentalInterval   time.Duration
	rentalEnabled    bool

	runHardware func(ctx context.Context)
	runRental   func(ctx context.Context)

	logger *slog.Logger
}

// New builds a Scheduler. runRental is ignored (and the rental loop
// never starts) when rentalEnabled is false, matching spec.md §4.6's
// "if history store is configured" condition.
func New(hardwareInterval, rentalInterval time.Duration, rentalEnabled bool, runHardware, runRental func(ctx context.Context), logger *slog.Logger) *Scheduler {
	if hardwareInterval <= 0 {
		hardwareInterval = 30 * time.Second
	}
	if rentalInterval <= 0 {
		rentalInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		hardwareInterval: hardwareInterval,
		rentalInterval:   rentalInterval,
		rentalEnabled:    rentalEnabled,
		runHardware:      runHardware,
		runRental:        runRental,
		logger:           logger,
	}
}

// Run starts both loops, blocking until ctx is cancelled. Each loop runs
// its function once synchronously before entering periodic mode.
func (s *Scheduler) Run(ctx context.Context) {
	s.runHardware(ctx)
	if s.rentalEnabled {
		s.runRental(ctx)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx, "hardware", s.hardwareInterval, s.runHardware)
	}()
	if s.rentalEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, "rental", s.rentalInterval, s.runRental)
		}()
	}
	wg.Wait()
}

// loop ticks fn on interval, guarded so a slow tick never overlaps its
// successor: the next tick is skipped (not queued) if the previous one
// is still running when the ticker fires (spec.md §4.6).
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var busy int32

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler loop stopped", "loop", name)
			return
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&busy, 0, 1) {
				s.logger.Warn("scheduler tick skipped, previous tick still running", "loop", name)
				continue
			}
			go func() {
				defer atomic.StoreInt32(&busy, 0)
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("scheduler tick panicked", "loop", name, "recover", r)
					}
				}()
				fn(ctx)
			}()
		}
	}
}
