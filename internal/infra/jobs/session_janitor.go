// Package jobs runs the periodic maintenance tasks of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

// SessionPurger deletes expired sessions and reports how many were removed.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionJanitor purges expired sessions on a cron schedule.
type SessionJanitor struct {
	purger   SessionPurger
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewSessionJanitor validates schedule ("@every 1h", "0 * * * *", ...) and
// registers the purge job. Nothing runs until Start.
func NewSessionJanitor(purger SessionPurger, schedule string, logger *zap.Logger) (*SessionJanitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &SessionJanitor{
		purger:   purger,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("parse session sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// RunOnce performs a single purge.
func (j *SessionJanitor) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	removed, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Warn("session sweep failed", zap.Error(err))
		return 0, err
	}
	j.logger.Debug("session sweep finished", zap.Int64("removed", removed))
	return removed, nil
}

// Start launches the scheduler in its own goroutine.
func (j *SessionJanitor) Start() {
	j.cron.Start()
	j.logger.Info("session janitor started", zap.String("schedule", j.schedule))
}

// Stop prevents new runs and waits for a running purge to finish or ctx to end.
func (j *SessionJanitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("session janitor stop timed out")
	}
}

// Next reports when the purge runs next. It is zero before Start.
func (j *SessionJanitor) Next() time.Time {
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
