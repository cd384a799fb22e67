package license

import (
	"context"
	"time"

	"entitlement-controlplane/pkg/repository"

	"gorm.io/gorm"
)

// Store persists tenant license assignments.
type Store struct {
	db   *gorm.DB
	repo repository.Repository[TenantLicense]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:   db,
		repo: repository.ProvideStore[TenantLicense](db),
	}
}

func (s *Store) WithTrx(tx *gorm.DB) *Store {
	if tx == nil {
		return s
	}
	return &Store{db: tx, repo: s.repo.WithTrx(tx)}
}

// FindActive returns the tenant's active assignment or (nil, nil).
func (s *Store) FindActive(ctx context.Context, tenantID string) (*TenantLicense, error) {
	return s.repo.FindOne(ctx, &TenantLicense{TenantID: tenantID, Status: AssignmentActive})
}

func (s *Store) Create(ctx context.Context, l *TenantLicense) error {
	return s.repo.Create(ctx, l)
}

// Supersede moves the tenant's active assignment to expired and returns it, or
// nil when there was none.
func (s *Store) Supersede(ctx context.Context, tenantID string) (*TenantLicense, error) {
	current, err := s.FindActive(ctx, tenantID)
	if err != nil || current == nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&TenantLicense{}).
		Where("id = ? AND status = ?", current.ID, AssignmentActive).
		Updates(map[string]any{
			"status":           AssignmentExpired,
			"active_tenant_id": nil,
		}).Error; err != nil {
		return nil, err
	}

	current.Status = AssignmentExpired
	current.ActiveTenantID = nil
	return current, nil
}

// ReleaseKey revokes the active assignment backed by keyID, if any.
func (s *Store) ReleaseKey(ctx context.Context, tx *gorm.DB, keyID string, at time.Time) error {
	db := s.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&TenantLicense{}).
		Where("license_key_id = ? AND status = ?", keyID, AssignmentActive).
		Updates(map[string]any{
			"status":           AssignmentRevoked,
			"active_tenant_id": nil,
			"updated_at":       at,
		}).Error
}

// ExpiringRow is an active assignment joined with its tenant and key.
type ExpiringRow struct {
	LicenseID    string
	TenantID     string
	TenantName   string
	TenantStatus string
	LicenseKeyID string
	KeyCode      string
	ActivatedAt  time.Time
	ExpiresAt    time.Time
}

func (s *Store) ListExpiringWithTenant(ctx context.Context, from, to time.Time) ([]ExpiringRow, error) {
	var rows []ExpiringRow
	err := s.db.WithContext(ctx).
		Table("tenant_licenses AS tl").
		Select(`tl.id AS license_id, tl.tenant_id, t.name AS tenant_name, t.status AS tenant_status,
			tl.license_key_id, lk.key_code, tl.activated_at, tl.expires_at`).
		Joins("JOIN tenants t ON t.id = tl.tenant_id").
		Joins("JOIN license_keys lk ON lk.id = tl.license_key_id").
		Where("tl.status = ? AND tl.expires_at > ? AND tl.expires_at <= ?", AssignmentActive, from, to).
		Order("tl.expires_at ASC").
		Scan(&rows).Error
	return rows, err
}
