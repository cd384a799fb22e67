package tenant

import (
	"time"
)

type TenantStatus string

const (
	Trial     TenantStatus = "trial"
	Active    TenantStatus = "active"
	Suspended TenantStatus = "suspended"
)

func (t TenantStatus) String() string {
	switch t {
	case Trial, Active, Suspended:
		return string(t)
	default:
		return ""
	}
}

type Tenant struct {
	ID                 string       `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt          time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"column:updated_at" json:"updated_at"`
	Name               string       `gorm:"column:name;not null" json:"name"`
	Slug               string       `gorm:"column:slug;uniqueIndex;type:varchar(120)" json:"slug"`
	Status             TenantStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	SubscriptionStatus TenantStatus `gorm:"column:subscription_status;type:varchar(20);not null" json:"subscription_status"`
	TrialEndsAt        time.Time    `gorm:"column:trial_ends_at;not null" json:"trial_ends_at"`
	SuspendedAt        *time.Time   `gorm:"column:suspended_at" json:"suspended_at,omitempty"`
}

func (Tenant) TableName() string {
	return "tenants"
}

func (t *Tenant) IsSuspended() bool {
	return t.Status == Suspended
}
