package tenant

import (
	"context"
	"time"

	"entitlement-controlplane/pkg/db/option"
	"entitlement-controlplane/pkg/repository"

	"gorm.io/gorm"
)

// Store is the read side other services use to load tenants, optionally
// inside their own transaction.
type Store struct {
	repo repository.Repository[Tenant]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{repo: repository.ProvideStore[Tenant](db)}
}

func (s *Store) WithTrx(tx *gorm.DB) *Store {
	return &Store{repo: s.repo.WithTrx(tx)}
}

// FindByID returns (nil, nil) when the tenant does not exist.
func (s *Store) FindByID(ctx context.Context, id string, opts ...option.QueryOption) (*Tenant, error) {
	return s.repo.FindOne(ctx, &Tenant{ID: id}, opts...)
}

func (s *Store) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.repo.FindOne(ctx, &Tenant{Slug: slug})
}

func (s *Store) Create(ctx context.Context, t *Tenant) error {
	return s.repo.Create(ctx, t)
}

// ListTrialing returns tenants still on their trial with from < trial_ends_at <= to.
func (s *Store) ListTrialing(ctx context.Context, from, to time.Time) ([]*Tenant, error) {
	return s.repo.Find(ctx, &Tenant{Status: Trial},
		option.ApplyOperator(option.Condition{Field: "trial_ends_at", Operator: option.GT, Value: from}),
		option.ApplyOperator(option.Condition{Field: "trial_ends_at", Operator: option.LTE, Value: to}),
		option.WithSortBy(option.QuerySortBy{SortBy: "trial_ends_at"}),
	)
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.repo.Count(ctx, &Tenant{ID: id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
