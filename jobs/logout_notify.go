package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
)

// Revoker invalidates a token server-side.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// LogoutNotifyJob delivers queued logout notifications.
type LogoutNotifyJob struct {
	revoker Revoker
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLogoutNotifyJob constructs the job.
func NewLogoutNotifyJob(revoker Revoker, logger *slog.Logger, metrics *observability.Metrics) *LogoutNotifyJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogoutNotifyJob{revoker: revoker, logger: logger, metrics: metrics}
}

// Handle processes TaskLogoutNotify tasks. Tokens the backend already
// rejects count as delivered.
func (j *LogoutNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { j.metrics.JobProcessed(TaskLogoutNotify, jobResult(err)) }()

	var payload LogoutNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Token == "" {
		return fmt.Errorf("jobs: logout notify payload: %w", asynq.SkipRetry)
	}
	err = j.revoker.Revoke(ctx, payload.Token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, identity.ErrInvalidToken):
		return nil
	default:
		j.logger.Warn("logout notification failed", slog.String("task_id", taskID(t)), slog.Any("error", err))
		return err
	}
}

func jobResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, asynq.SkipRetry):
		return "skipped"
	default:
		return "failure"
	}
}

func taskID(t *asynq.Task) string {
	if w := t.ResultWriter(); w != nil {
		return w.TaskID()
	}
	return ""
}
