package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCronSpec fires the daily cycle at 09:00 local time.
const DefaultCronSpec = "0 9 * * *"

// runTimeout bounds one cycle; a wedged mail transport must not hold the
// run-lock past the next trigger.
const runTimeout = 15 * time.Minute

// Job is the unit of work the scheduler triggers.
type Job interface {
	Run(ctx context.Context, now time.Time) error
}

// Scheduler fires the expiry job once per day at a fixed wall-clock time.
// It is a persistent, self-rearming trigger: a failed run is logged and the
// next day's run still happens. Overlapping runs are prevented by a run-lock.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *zap.Logger

	mu sync.Mutex // run-lock: held for the duration of one cycle
}

// NewScheduler constructs a scheduler. An empty spec uses DefaultCronSpec.
func NewScheduler(spec string, job Job, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultCronSpec
	}
	return &Scheduler{cron: cron.New(), spec: spec, job: job, logger: logger}
}

// Start validates the cron spec and arms the trigger.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("expiry scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop disarms the trigger and waits for a running cycle, honoring ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

// runOnce executes one cycle under the run-lock. If the previous cycle is
// still running when the trigger fires, this run is skipped, not queued.
func (s *Scheduler) runOnce() {
	if !s.mu.TryLock() {
		s.logger.Warn("previous expiry cycle still running, skipping this trigger")
		return
	}
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.job.Run(ctx, time.Now()); err != nil {
		s.logger.Error("expiry cycle failed", zap.Error(err))
	}
}
