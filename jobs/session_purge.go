package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/roadassist/portal/internal/observability"
)

// Purger deletes expired login sessions.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionPurgeJob removes expired directory login sessions.
type SessionPurgeJob struct {
	purger  Purger
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSessionPurgeJob constructs the job.
func NewSessionPurgeJob(purger Purger, logger *slog.Logger, metrics *observability.Metrics) *SessionPurgeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPurgeJob{purger: purger, logger: logger, metrics: metrics}
}

// Handle processes TaskSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { j.metrics.JobProcessed(TaskSessionPurge, jobResult(err)) }()

	var payload SessionPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: session purge payload: %w", asynq.SkipRetry)
		}
	}
	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("jobs: purge sessions: %w", err)
	}
	j.logger.Info("purged expired sessions", slog.Int64("count", n), slog.Time("scheduled_for", payload.ScheduledFor))
	return nil
}
