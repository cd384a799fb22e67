package notification

import (
	"context"
	"time"
)

type ReminderKind string

const (
	ReminderKindLicense ReminderKind = "license"
	ReminderKindTrial   ReminderKind = "trial"
)

func (k ReminderKind) String() string {
	switch k {
	case ReminderKindLicense, ReminderKindTrial:
		return string(k)
	default:
		return ""
	}
}

// ExpiryReminder tells a tenant its trial or license ends in DaysUntilExpiry days.
type ExpiryReminder struct {
	TenantID        string       `json:"tenant_id"`
	TenantName      string       `json:"tenant_name"`
	Kind            ReminderKind `json:"kind"`
	ReferenceID     string       `json:"reference_id"`
	ThresholdDay    int          `json:"threshold_day"`
	DaysUntilExpiry int          `json:"days_until_expiry"`
	ExpiresAt       time.Time    `json:"expires_at"`
}

type SuspensionNotice struct {
	TenantID    string    `json:"tenant_id"`
	SuspendedAt time.Time `json:"suspended_at"`
	Reason      string    `json:"reason"`
}

// Notifier decides nothing; it only hands notices to the delivery channel.
type Notifier interface {
	SendExpiryReminder(ctx context.Context, r ExpiryReminder) error
	SendSuspensionNotice(ctx context.Context, n SuspensionNotice) error
}
