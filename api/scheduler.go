/*
scheduler.go - Automated year-end carry-forward

PURPOSE:
  Periodically checks whether the quota year has rolled over and, if so,
  runs the carry-forward batch for the year that just ended. Saves HR from
  remembering to hit the admin endpoint every January.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Only acts when the clock has entered a year it has not processed yet
  - The batch itself is idempotent, so a restart mid-January at worst
    repeats a no-op run

CONFIGURATION:
  - CheckInterval: how often to check (default: 1 hour)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  scheduler := NewCarryForwardScheduler(carry, clk, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunCarryForward endpoint (manual trigger)
  - leave/carryover.go: the batch itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/leave"
)

// CarryForwardScheduler runs the year-end batch automatically.
type CarryForwardScheduler struct {
	Carry         *leave.CarryForward
	CheckInterval time.Duration
	Enabled       bool

	clock  clock.Clock
	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastProcessedYear int
}

func NewCarryForwardScheduler(carry *leave.CarryForward, clk clock.Clock, log *zap.Logger) *CarryForwardScheduler {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CarryForwardScheduler{
		Carry:         carry,
		CheckInterval: time.Hour,
		Enabled:       true,
		clock:         clk,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the background loop. The first check runs immediately.
func (s *CarryForwardScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info("carry-forward scheduler disabled")
		return
	}

	// Years before startup are assumed handled; only a rollover observed
	// while running triggers the batch.
	s.lastProcessedYear = s.clock.Now().Year()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	s.log.Info("carry-forward scheduler started",
		zap.Duration("check_interval", s.CheckInterval))
}

// Stop shuts the loop down and waits for it to exit. The mutex is released
// before waiting: checkAndProcess takes it too, so holding it here would
// deadlock against an in-flight tick.
func (s *CarryForwardScheduler) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("carry-forward scheduler stopped")
}

func (s *CarryForwardScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.checkAndProcess()
		case <-s.stop:
			return
		}
	}
}

func (s *CarryForwardScheduler) checkAndProcess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.clock.Now().Year()
	if year <= s.lastProcessedYear {
		return
	}

	// The year rolled over; carry the ended year forward.
	endedYear := year - 1
	summary, err := s.Carry.Run(context.Background(), endedYear)
	if err != nil {
		s.log.Error("automatic carry-forward failed",
			zap.Int("from_year", endedYear),
			zap.Error(err))
		return
	}

	s.lastProcessedYear = year
	s.log.Info("automatic carry-forward complete",
		zap.Int("from_year", endedYear),
		zap.Int("processed", summary.Processed))
}

// RunNow triggers an immediate check, for tests and admin tooling.
func (s *CarryForwardScheduler) RunNow() {
	s.checkAndProcess()
}
