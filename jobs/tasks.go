package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical carries logout notifications ahead of housekeeping.
	QueueCritical = "critical"

	// TaskLogoutNotify tells the backend a token was signed out.
	TaskLogoutNotify = "identity:logout_notify"
	// TaskSessionPurge deletes expired directory login sessions.
	TaskSessionPurge = "directory:session_purge"
)

const (
	logoutNotifyRetries = 5
	logoutNotifyTimeout = 15 * time.Second
	logoutNotifyTTL     = 24 * time.Hour
)

// LogoutNotifyPayload carries the token to revoke.
type LogoutNotifyPayload struct {
	Token       string    `json:"token"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewLogoutNotifyTask constructs the logout notification task. Each task gets
// a fresh ULID so retries of one logout never collide with another.
func NewLogoutNotifyTask(token string, at time.Time) (*asynq.Task, error) {
	if token == "" {
		return nil, fmt.Errorf("jobs: logout notify: empty token")
	}
	body, err := json.Marshal(LogoutNotifyPayload{Token: token, RequestedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLogoutNotify, body,
		asynq.TaskID(ulid.Make().String()),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(logoutNotifyRetries),
		asynq.Timeout(logoutNotifyTimeout),
		asynq.Deadline(at.Add(logoutNotifyTTL)),
	), nil
}

// SessionPurgePayload carries scheduling metadata.
type SessionPurgePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionPurgeTask constructs the directory session purge task.
func NewSessionPurgeTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SessionPurgePayload{ScheduledFor: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
