// Package scheduler runs the decision cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// CycleFunc is one decision cycle execution.
type CycleFunc func(ctx context.Context) error

// Scheduler triggers the decision cycle on a cron schedule. A cycle
// that is still running when the next tick fires is never overlapped;
// the tick is skipped instead.
type Scheduler struct {
	cron  *cron.Cron
	ctx   context.Context
	cycle CycleFunc
	busy  atomic.Bool
}

// New creates a Scheduler bound to ctx. Cron specs include a seconds field.
func New(ctx context.Context, cycle CycleFunc) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		ctx:   ctx,
		cycle: cycle,
	}
}

// Register schedules the cycle at the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("register cycle schedule %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[scheduler] started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] stopped")
}

// RunCycleNow executes one cycle immediately, subject to the same
// overlap guard as scheduled ticks.
func (s *Scheduler) RunCycleNow() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	if !s.busy.CompareAndSwap(false, true) {
		log.Println("[scheduler] previous cycle still running, skipping tick")
		return
	}
	defer s.busy.Store(false)

	if err := s.cycle(s.ctx); err != nil {
		log.Printf("[scheduler] cycle failed: %v", err)
	}
}
