package reminder

import (
	"time"

	"entitlement-controlplane/services/notification"

	"gorm.io/datatypes"
)

// TrialReference is the reference_id used for trial reminders; license
// reminders use the assignment id.
const TrialReference = "trial"

// Reminder is the ledger row proving a reminder went out. The unique index
// makes a second send for the same reference and threshold impossible.
type Reminder struct {
	ID           string                    `gorm:"column:id;primaryKey"`
	TenantID     string                    `gorm:"column:tenant_id;not null;uniqueIndex:idx_reminder_dedup,priority:1"`
	ReferenceID  string                    `gorm:"column:reference_id;not null;uniqueIndex:idx_reminder_dedup,priority:2"`
	ThresholdDay int                       `gorm:"column:threshold_day;not null;uniqueIndex:idx_reminder_dedup,priority:3"`
	Kind         notification.ReminderKind `gorm:"column:kind;type:varchar(20);not null"`
	ExpiresAt    time.Time                 `gorm:"column:expires_at;not null"`
	SentAt       time.Time                 `gorm:"column:sent_at;not null"`
	CreatedAt    time.Time                 `gorm:"column:created_at"`
}

func (Reminder) TableName() string {
	return "license_reminders"
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

func (s JobStatus) String() string {
	switch s {
	case JobPending, JobRunning, JobSuccess, JobFailed:
		return string(s)
	default:
		return ""
	}
}

// ScanJob is an execution record for one reminder scan.
type ScanJob struct {
	ID           string         `gorm:"column:id;primaryKey"`
	Trigger      string         `gorm:"column:triggered_by;type:varchar(20);not null"`
	Status       JobStatus      `gorm:"column:status;type:varchar(20);default:'pending'"`
	TotalChecked int            `gorm:"column:total_checked"`
	Sent         int            `gorm:"column:sent"`
	Failed       int            `gorm:"column:failed"`
	Skipped      int            `gorm:"column:skipped"`
	ErrorMsg     string         `gorm:"column:error_msg;type:text"`
	StartedAt    *time.Time     `gorm:"column:started_at"`
	CompletedAt  *time.Time     `gorm:"column:completed_at"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	Metadata     datatypes.JSON `gorm:"column:metadata"`
}

func (ScanJob) TableName() string {
	return "reminder_jobs"
}
