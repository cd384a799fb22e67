package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"entitlement-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{ID: "id", Queue: "critical"}, nil
}

func TestNextRunTime(t *testing.T) {
	base := time.Date(2025, 2, 1, 0, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC), nextRunTime(base, 1, 0))
	require.Equal(t, time.Date(2025, 2, 2, 1, 0, 0, 0, time.UTC), nextRunTime(base.Add(time.Hour), 1, 0))
	require.Equal(t, time.Date(2025, 2, 2, 1, 0, 0, 0, time.UTC), nextRunTime(time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC), 1, 0))
}

func TestSchedulerEnqueuesDailyTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := &Scheduler{enqueuer: enq, hour: 1, now: func() time.Time { return now }}

	require.NoError(t, s.enqueue(context.Background(), now))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.LicenseReminderScan, enq.tasks[0].Type())

	var p ScanPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	require.Equal(t, "20250201", p.Day)
	require.Equal(t, TriggerScheduler, p.Trigger)
}

func TestSchedulerIgnoresDuplicateDay(t *testing.T) {
	enq := &fakeEnqueuer{err: fmt.Errorf("failed to enqueue task: %w", asynq.ErrTaskIDConflict)}
	s := &Scheduler{enqueuer: enq, hour: 1, now: func() time.Time { return now }}

	require.NoError(t, s.enqueue(context.Background(), now))
}

func TestHandleScanTask(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, db := newTestService(t, notifier)
	seedLicensed(t, db, "T0001", now.Add(7*24*time.Hour+time.Hour))

	task, err := NewScanTask(now, TriggerScheduler)
	require.NoError(t, err)

	h := NewTaskHandler(svc)
	require.NoError(t, h.HandleScanTask(context.Background(), task))
	require.Len(t, notifier.reminders, 1)

	var job ScanJob
	require.NoError(t, db.First(&job).Error)
	require.Equal(t, TriggerScheduler, job.Trigger)
}

func TestHandleScanTaskBadPayload(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})
	h := NewTaskHandler(svc)

	err := h.HandleScanTask(context.Background(), asynq.NewTask(taskname.LicenseReminderScan, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
