package licensekey

import (
	"context"
	"errors"
	"time"

	"entitlement-controlplane/pkg/db/pagination"
	"entitlement-controlplane/pkg/errutil"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignmentReleaser ends whatever tenant assignment is backed by a key that
// is being revoked, inside the revocation transaction.
type AssignmentReleaser interface {
	ReleaseKey(ctx context.Context, tx *gorm.DB, keyID string, at time.Time) error
}

type Service struct {
	db        *gorm.DB
	store     *Store
	generator *Generator
	releaser  AssignmentReleaser
	now       func() time.Time
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Generator *Generator
	Releaser  AssignmentReleaser `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		store:     NewStore(p.DB),
		generator: p.Generator,
		releaser:  p.Releaser,
		now:       time.Now,
	}
}

func (s *Service) GenerateKeys(ctx context.Context, req GenerateRequest) ([]*LicenseKey, error) {
	return s.generator.Generate(ctx, req)
}

type ListKeysRequest struct {
	Status   string `form:"status"`
	TenantID string `form:"tenant_id"`
	pagination.Pagination
}

type ListKeysResponse struct {
	Keys     []*LicenseKey              `json:"keys"`
	Counts   map[LicenseKeyStatus]int64 `json:"counts"`
	PageInfo *pagination.PageInfo       `json:"page_info"`
}

func (s *Service) ListKeys(ctx context.Context, req ListKeysRequest) (*ListKeysResponse, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	filter := ListFilter{TenantID: req.TenantID, Pagination: req.Pagination}
	if req.Status != "" {
		st, err := ParseStatus(req.Status)
		if err != nil {
			return nil, errutil.ValidationFailed("invalid status filter", err,
				errutil.WithDetails(errutil.Detail{Field: "status", Message: "must be one of unused, active, expired, revoked"}))
		}
		filter.Status = st
	}

	keys, pageInfo, err := s.store.List(ctx, filter)
	if err != nil {
		zapLog.Error("failed to list license keys", zap.Error(err))
		return nil, errutil.Internal("failed to list license keys", err)
	}

	counts, err := s.store.CountByStatus(ctx, req.TenantID)
	if err != nil {
		zapLog.Error("failed to count license keys", zap.Error(err))
		return nil, errutil.Internal("failed to list license keys", err)
	}

	return &ListKeysResponse{
		Keys:     keys,
		Counts:   counts,
		PageInfo: pageInfo,
	}, nil
}

// RevokeKey marks a key revoked. Revoking an active key also ends the tenant
// assignment it backs; revoking twice is a no-op.
func (s *Service) RevokeKey(ctx context.Context, keyID string) (*LicenseKey, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("license_key_id", keyID),
	)

	now := s.now().UTC()
	var key *LicenseKey

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTrx(tx)

		k, err := store.FindByID(ctx, keyID)
		if err != nil {
			return err
		}
		if k == nil {
			return errutil.NotFound("license key not found", nil)
		}

		changed, err := store.Revoke(ctx, k.ID, now)
		if err != nil {
			return err
		}
		if changed && k.Status == StatusActive && s.releaser != nil {
			if err := s.releaser.ReleaseKey(ctx, tx, k.ID, now); err != nil {
				return err
			}
		}

		key, err = store.FindByID(ctx, keyID)
		return err
	})
	if err != nil {
		var be errutil.BaseError
		if errors.As(err, &be) {
			return nil, err
		}
		zapLog.Error("failed to revoke license key", zap.Error(err))
		return nil, errutil.Internal("failed to revoke license key", err)
	}

	zapLog.Info("license key revoked", zap.String("key", Mask(key.KeyCode)))
	return key, nil
}
