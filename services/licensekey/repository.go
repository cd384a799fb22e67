package licensekey

import (
	"context"
	"time"

	"entitlement-controlplane/pkg/db/option"
	"entitlement-controlplane/pkg/db/pagination"
	"entitlement-controlplane/pkg/repository"

	"gorm.io/gorm"
)

type ListFilter struct {
	Status   LicenseKeyStatus
	TenantID string
	pagination.Pagination
}

// Store persists license keys. Keys are never deleted.
type Store struct {
	db   *gorm.DB
	repo repository.Repository[LicenseKey]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:   db,
		repo: repository.ProvideStore[LicenseKey](db),
	}
}

func (s *Store) WithTrx(tx *gorm.DB) *Store {
	if tx == nil {
		return s
	}
	return &Store{db: tx, repo: s.repo.WithTrx(tx)}
}

func (s *Store) CreateBatch(ctx context.Context, keys []*LicenseKey) error {
	return s.repo.BatchCreate(ctx, keys)
}

// FindByCode looks a key up by its canonical code; (nil, nil) when absent.
func (s *Store) FindByCode(ctx context.Context, code string, opts ...option.QueryOption) (*LicenseKey, error) {
	return s.repo.FindOne(ctx, &LicenseKey{KeyCode: code}, opts...)
}

func (s *Store) FindByID(ctx context.Context, id string) (*LicenseKey, error) {
	return s.repo.FindOne(ctx, &LicenseKey{ID: id})
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := s.repo.Count(ctx, &LicenseKey{KeyCode: code})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) filter(f ListFilter) []option.QueryOption {
	var opts []option.QueryOption
	if f.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: f.Status}))
	}
	if f.TenantID != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "assigned_tenant_id", Operator: option.EQ, Value: f.TenantID}))
	}
	return opts
}

// List returns keys newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*LicenseKey, *pagination.PageInfo, error) {
	opts := append(s.filter(f),
		option.ApplyPagination(f.Pagination),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)

	keys, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, nil, err
	}

	keys, pageInfo := pagination.BuildCursorPageInfo(keys, f.Limit, func(k *LicenseKey) pagination.Cursor {
		return pagination.Cursor{CreatedAt: k.CreatedAt, ID: k.ID}
	})
	return keys, pageInfo, nil
}

type statusCount struct {
	Status LicenseKeyStatus
	Total  int64
}

// CountByStatus aggregates over the tenant filter only, so the counts describe
// the whole population the list was drawn from.
func (s *Store) CountByStatus(ctx context.Context, tenantID string) (map[LicenseKeyStatus]int64, error) {
	q := s.db.WithContext(ctx).Model(&LicenseKey{})
	for _, opt := range s.filter(ListFilter{TenantID: tenantID}) {
		q = opt(q)
	}

	var rows []statusCount
	if err := q.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[LicenseKeyStatus]int64, len(AllStatuses))
	for _, st := range AllStatuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}

// MarkActive flips an unused key to active. It reports false when the key was
// no longer unused, which means a concurrent activation won.
func (s *Store) MarkActive(ctx context.Context, id, tenantID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&LicenseKey{}).
		Where("id = ? AND status = ?", id, StatusUnused).
		Updates(map[string]any{
			"status":             StatusActive,
			"assigned_tenant_id": tenantID,
			"activated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Revoke reports false when the key was already revoked.
func (s *Store) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&LicenseKey{}).
		Where("id = ? AND status <> ?", id, StatusRevoked).
		Updates(map[string]any{
			"status":     StatusRevoked,
			"revoked_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
