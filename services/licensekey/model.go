package licensekey

import (
	"fmt"
	"time"
)

type LicenseKeyStatus string

const (
	StatusUnused  LicenseKeyStatus = "unused"
	StatusActive  LicenseKeyStatus = "active"
	StatusExpired LicenseKeyStatus = "expired"
	StatusRevoked LicenseKeyStatus = "revoked"
)

var AllStatuses = []LicenseKeyStatus{StatusUnused, StatusActive, StatusExpired, StatusRevoked}

func (s LicenseKeyStatus) String() string {
	switch s {
	case StatusUnused, StatusActive, StatusExpired, StatusRevoked:
		return string(s)
	default:
		return ""
	}
}

func ParseStatus(v string) (LicenseKeyStatus, error) {
	s := LicenseKeyStatus(v)
	if s.String() == "" {
		return "", fmt.Errorf("unknown license key status %q", v)
	}
	return s, nil
}

// LicenseKey is never deleted; revocation is a status change.
type LicenseKey struct {
	ID               string           `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt        time.Time        `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at" json:"updated_at"`
	KeyCode          string           `gorm:"column:key_code;type:varchar(32);uniqueIndex;not null" json:"key_code"`
	DurationDays     int              `gorm:"column:duration_days;not null" json:"duration_days"`
	Status           LicenseKeyStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	AssignedTenantID *string          `gorm:"column:assigned_tenant_id;index" json:"assigned_tenant_id,omitempty"`
	CreatedBy        string           `gorm:"column:created_by" json:"created_by"`
	Notes            string           `gorm:"column:notes;type:text" json:"notes,omitempty"`
	ActivatedAt      *time.Time       `gorm:"column:activated_at" json:"activated_at,omitempty"`
	RevokedAt        *time.Time       `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
}

func (LicenseKey) TableName() string {
	return "license_keys"
}

func (k *LicenseKey) Duration() time.Duration {
	return time.Duration(k.DurationDays) * 24 * time.Hour
}

// AssignedTo reports whether the key may be activated by tenantID.
func (k *LicenseKey) AssignedTo(tenantID string) bool {
	return k.AssignedTenantID == nil || *k.AssignedTenantID == tenantID
}
