package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entitlement-controlplane/pkg/task"
	"entitlement-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskNotifier enqueues notices on the notifications queue for the delivery
// worker (email/SMS) that consumes the notification:* task types.
type TaskNotifier struct {
	enqueuer task.Enqueuer
}

func NewTaskNotifier(enqueuer task.Enqueuer) *TaskNotifier {
	return &TaskNotifier{enqueuer: enqueuer}
}

func (n *TaskNotifier) SendExpiryReminder(ctx context.Context, r ExpiryReminder) error {
	taskID := fmt.Sprintf("%s:%s:%s:%d", r.Kind, r.TenantID, r.ReferenceID, r.ThresholdDay)
	return n.enqueue(ctx, taskname.NotificationLicenseReminder, taskID, r)
}

func (n *TaskNotifier) SendSuspensionNotice(ctx context.Context, s SuspensionNotice) error {
	taskID := fmt.Sprintf("suspended:%s:%d", s.TenantID, s.SuspendedAt.Unix())
	return n.enqueue(ctx, taskname.NotificationTenantSuspended, taskID, s)
}

func (n *TaskNotifier) enqueue(ctx context.Context, typename, taskID string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	t := asynq.NewTask(typename, b,
		asynq.TaskID(taskID),
		asynq.MaxRetry(5),
		asynq.Retention(72*time.Hour),
		asynq.Queue(taskname.QueueNotifications),
	)

	if _, err := n.enqueuer.Enqueue(ctx, t); err != nil {
		if task.IsDuplicate(err) {
			zap.L().Debug("notification already queued", zap.String("task_id", taskID))
			return nil
		}
		return err
	}

	zap.L().Info("notification queued", zap.String("type", typename), zap.String("task_id", taskID))
	return nil
}
