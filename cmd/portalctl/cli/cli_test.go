package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
	"github.com/roadassist/portal/jobs"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (r *recordingEnqueuer) Close() error { return nil }

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
	err   error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.infos[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func (s stubInspector) Close() error { return nil }

func execute(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	env.Stdout = stdout
	env.Stderr = new(bytes.Buffer)
	if env.Stdin == nil {
		env.Stdin = strings.NewReader("")
	}
	root := NewRootCommand(env)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRoutesJSONListsEveryPattern(t *testing.T) {
	out, err := execute(t, Env{}, "routes", "-o", "json")
	require.NoError(t, err)

	var rows []RouteRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, len(routes.Table()))

	byPattern := map[string]RouteRow{}
	for _, r := range rows {
		byPattern[r.Pattern] = r
	}
	assert.Equal(t, "public", byPattern[routes.PathLogin].Kind)
	assert.True(t, byPattern[routes.PathContract].SkipContractCheck)
	assert.Equal(t, []string{string(identity.RoleSupport)}, byPattern[routes.PathSupport].Roles)
}

func TestRoutesTableOutput(t *testing.T) {
	out, err := execute(t, Env{}, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "PATTERN")
	assert.Contains(t, out, routes.PathSales)
	assert.Contains(t, out, "required")
}

func TestMenuProjectsForRole(t *testing.T) {
	out, err := execute(t, Env{}, "menu", "--role", "branch_user", "--items", "3", "-o", "yaml")
	require.NoError(t, err)

	var report MenuReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "BRANCH_USER", report.Role)
	assert.Equal(t, "admin", report.Variant)
	require.Len(t, report.Primary, 3)
	assert.Equal(t, "Dashboard", report.Primary[0].Label)
	for _, item := range append(report.Primary, report.Overflow...) {
		assert.NotEqual(t, routes.PathPayments, item.Path, "branch users never see payments")
		assert.NotEqual(t, routes.PathAgencies, item.Path)
	}
}

func TestMenuSupportShellIsFixed(t *testing.T) {
	report := ProjectMenu(identity.RoleSupport, 1, routes.PathSupportFiles)
	assert.Equal(t, "support", report.Variant)
	require.Len(t, report.Primary, 3)
	assert.Empty(t, report.Overflow)
	assert.True(t, report.Primary[1].Active)
}

func TestMenuRejectsUnknownRole(t *testing.T) {
	_, err := execute(t, Env{}, "menu", "--role", "janitor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestThemeResolve(t *testing.T) {
	out, err := execute(t, Env{}, "theme", "resolve", "--preference", "dark", "--path", "/about")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "light (public path"))

	out, err = execute(t, Env{}, "theme", "resolve", "--preference", "system", "--path", "/dashboard/sales", "--os-dark")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dark (private path"))
}

func TestHashPasswordFromPipedStdin(t *testing.T) {
	out, err := execute(t, Env{Stdin: strings.NewReader("s3cret\n")}, "users", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := execute(t, Env{Stdin: strings.NewReader("\n")}, "users", "hash-password")
	require.Error(t, err)
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Setenv("PG_DSN", "")
	_, err := execute(t, Env{}, "migrate", "up", "--dsn", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PG_DSN")
}

func TestMigrateRunsSelectedDirection(t *testing.T) {
	var calls []string
	origUp, origDown := migrateUp, migrateDown
	t.Cleanup(func() { migrateUp, migrateDown = origUp, origDown })
	migrateUp = func(dsn string) error { calls = append(calls, "up:"+dsn); return nil }
	migrateDown = func(dsn string) error { return errors.New("dirty database") }

	out, err := execute(t, Env{}, "migrate", "up", "--dsn", "postgres://x")
	require.NoError(t, err)
	assert.Equal(t, "migrate up: ok\n", out)
	assert.Equal(t, []string{"up:postgres://x"}, calls)

	_, err = execute(t, Env{}, "migrate", "down", "--dsn", "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirty database")
}

func TestJobsTriggerSessionPurge(t *testing.T) {
	enq := &recordingEnqueuer{}
	env := Env{Jobs: func(string) (*JobsCLI, error) {
		return &JobsCLI{client: enq, inspector: stubInspector{}, now: func() time.Time { return time.Unix(0, 0) }}, nil
	}}

	out, err := execute(t, env, "jobs", "trigger", jobs.TaskSessionPurge)
	require.NoError(t, err)
	assert.Contains(t, out, "enqueued "+jobs.TaskSessionPurge)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskSessionPurge, enq.tasks[0].Type())
}

func TestJobsTriggerLogoutNeedsToken(t *testing.T) {
	c := &JobsCLI{client: &recordingEnqueuer{}, now: time.Now}
	_, err := c.Trigger(context.Background(), jobs.TaskLogoutNotify, "")
	require.Error(t, err)

	_, err = c.Trigger(context.Background(), "reports:rebuild", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported job")
}

func TestJobsStats(t *testing.T) {
	inspector := stubInspector{infos: map[string]*asynq.QueueInfo{
		jobs.QueueCritical: {Queue: jobs.QueueCritical, Pending: 4, Retry: 1},
	}}
	env := Env{Jobs: func(string) (*JobsCLI, error) {
		return &JobsCLI{client: &recordingEnqueuer{}, inspector: inspector, now: time.Now}, nil
	}}

	out, err := execute(t, env, "jobs", "stats", "-o", "json")
	require.NoError(t, err)

	var stats []QueueStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, QueueStats{Queue: jobs.QueueCritical, Pending: 4, Retry: 1}, stats[0])
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault}, stats[1])
}

func TestJobsStatsSurfacesInspectorErrors(t *testing.T) {
	env := Env{Jobs: func(string) (*JobsCLI, error) {
		return &JobsCLI{client: &recordingEnqueuer{}, inspector: stubInspector{err: errors.New("connection refused")}}, nil
	}}
	_, err := execute(t, env, "jobs", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
