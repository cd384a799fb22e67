package license

import (
	"time"

	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "active"
	AssignmentExpired AssignmentStatus = "expired"
	AssignmentRevoked AssignmentStatus = "revoked"
)

func (s AssignmentStatus) String() string {
	switch s {
	case AssignmentActive, AssignmentExpired, AssignmentRevoked:
		return string(s)
	default:
		return ""
	}
}

// TenantLicense records one activation of a key by a tenant. A tenant holds at
// most one active row: ActiveTenantID mirrors TenantID while the row is active
// and is NULL otherwise, so its unique index only constrains active rows.
type TenantLicense struct {
	ID             string           `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt      time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at" json:"updated_at"`
	TenantID       string           `gorm:"column:tenant_id;size:64;not null;index" json:"tenant_id"`
	ActiveTenantID *string          `gorm:"column:active_tenant_id;size:64;uniqueIndex:idx_tenant_active_license" json:"-"`
	LicenseKeyID   string           `gorm:"column:license_key_id;size:64;not null;index" json:"license_key_id"`
	ActivatedAt    time.Time        `gorm:"column:activated_at;not null" json:"activated_at"`
	ExpiresAt      time.Time        `gorm:"column:expires_at;not null;index" json:"expires_at"`
	Status         AssignmentStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
}

func (l *TenantLicense) BeforeCreate(*gorm.DB) error {
	if l.Status == AssignmentActive {
		tenantID := l.TenantID
		l.ActiveTenantID = &tenantID
	} else {
		l.ActiveTenantID = nil
	}
	return nil
}

func (TenantLicense) TableName() string {
	return "tenant_licenses"
}
