package expiry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func (j *blockingJob) Run(ctx context.Context, _ time.Time) error {
	j.runs.Add(1)
	close(j.started)
	select {
	case <-j.release:
	case <-ctx.Done():
	}
	return nil
}

func TestScheduler_OverlappingTriggerSkipped(t *testing.T) {
	t.Parallel()
	job := &blockingJob{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(DefaultCronSpec, job, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runOnce()
	}()
	<-job.started

	// second trigger while the first cycle is still running
	s.runOnce()
	if got := job.runs.Load(); got != 1 {
		t.Fatalf("runs=%d, want overlapping trigger skipped", got)
	}

	close(job.release)
	wg.Wait()

	// after the cycle finishes the next trigger runs again
	job.started = make(chan struct{})
	job.release = make(chan struct{})
	close(job.release)
	s.runOnce()
	if got := job.runs.Load(); got != 2 {
		t.Fatalf("runs=%d, want rearmed trigger to fire", got)
	}
}

func TestNewScheduler_EmptySpecDefaults(t *testing.T) {
	t.Parallel()
	s := NewScheduler("", &blockingJob{started: make(chan struct{}), release: make(chan struct{})}, zap.NewNop())
	if s.spec != DefaultCronSpec {
		t.Fatalf("spec=%q", s.spec)
	}
}

func TestScheduler_BadSpecRejected(t *testing.T) {
	t.Parallel()
	s := NewScheduler("not a cron spec", &blockingJob{started: make(chan struct{}), release: make(chan struct{})}, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Fatalf("want error on invalid cron spec")
	}
}
