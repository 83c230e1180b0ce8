package expiry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cycle is one scan-and-notify pass: select candidates, then dispatch.
type Cycle struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewCycle wires a scanner and a dispatcher into one runnable job.
func NewCycle(scanner *Scanner, dispatcher *Dispatcher, logger *zap.Logger) *Cycle {
	return &Cycle{scanner: scanner, dispatcher: dispatcher, logger: logger}
}

// Run executes one full cycle. Scan errors abort the cycle (nothing to
// dispatch); dispatch failures are already isolated per owner and only
// surface in the report.
func (c *Cycle) Run(ctx context.Context, now time.Time) error {
	candidates, err := c.scanner.Scan(ctx, now)
	if err != nil {
		return err
	}
	report := c.dispatcher.Dispatch(ctx, now, candidates)
	c.logger.Info("expiry cycle complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("notified", report.Notified),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	)
	return nil
}
