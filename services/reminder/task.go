package reminder

import (
	"context"
	"encoding/json"
	"time"

	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/pkg/rediskey"
	"entitlement-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type ScanPayload struct {
	Day     string `json:"day"`
	Trigger string `json:"trigger"`
}

// NewScanTask builds the daily scan task. The task id is derived from the day,
// so enqueueing twice for the same day is rejected by asynq.
func NewScanTask(day time.Time, trigger string) (*asynq.Task, error) {
	d := day.UTC().Format("20060102")
	payload, err := json.Marshal(ScanPayload{Day: d, Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.LicenseReminderScan, payload,
		asynq.TaskID(rediskey.BuildReminderScanDayKey(d)),
		asynq.MaxRetry(3),
		asynq.Timeout(scanLockTTL),
		asynq.Retention(48*time.Hour),
		asynq.Queue(taskname.QueueCritical),
	), nil
}

type TaskHandler struct {
	service *Service
}

func NewTaskHandler(service *Service) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) HandleScanTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		zap.L().Error("invalid reminder scan payload", zap.Error(err))
		return asynq.SkipRetry
	}

	trigger := p.Trigger
	if trigger == "" {
		trigger = TriggerScheduler
	}

	res, err := h.service.Run(ctx, trigger)
	if err != nil {
		if errutil.Is(err, errutil.StatusConflict) {
			zap.L().Info("reminder scan already running elsewhere", zap.String("day", p.Day))
			return nil
		}
		return err
	}

	zap.L().Info("reminder scan task done",
		zap.String("day", p.Day),
		zap.String("job_id", res.JobID),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return nil
}
