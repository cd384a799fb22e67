package license

import (
	"context"
	"errors"
	"time"

	"entitlement-controlplane/pkg/db/option"
	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/licensekey"
	"entitlement-controlplane/services/tenant"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrKeyNotFound    = errors.New("license key not found")
	ErrKeyAlreadyUsed = errors.New("license key already used")
)

type ActivateRequest struct {
	KeyCode string `json:"key_code" binding:"required"`
}

type ActivationResult struct {
	TenantID            string    `json:"tenant_id"`
	LicenseID           string    `json:"license_id"`
	LicenseKeyID        string    `json:"license_key_id"`
	KeyCode             string    `json:"key_code"`
	DurationDays        int       `json:"duration_days"`
	ActivatedAt         time.Time `json:"activated_at"`
	ExpiresAt           time.Time `json:"expires_at"`
	SupersededLicenseID string    `json:"superseded_license_id,omitempty"`
}

// Activate redeems a key for a tenant. Everything happens in one transaction:
// the tenant row is locked, any current license is superseded, and the key is
// claimed with a conditional update so that of two concurrent redemptions of
// the same key exactly one succeeds.
func (s *Service) Activate(ctx context.Context, tenantID, rawKey string) (*ActivationResult, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("tenant_id", tenantID),
	)

	code, err := s.codec.Normalize(rawKey)
	if err != nil {
		activationTotal.WithLabelValues("invalid_format").Inc()
		return nil, err
	}

	now := s.now().UTC()
	var result *ActivationResult

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.tenants.WithTrx(tx).FindByID(ctx, tenantID, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if t == nil {
			return errutil.NotFound("tenant not found", tenant.ErrTenantNotFound)
		}

		keys := s.keys.WithTrx(tx)
		key, err := keys.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if key == nil {
			return errutil.NotFound("license key not found", ErrKeyNotFound)
		}
		if key.Status != licensekey.StatusUnused || !key.AssignedTo(tenantID) {
			return errutil.Conflict("license key already used", ErrKeyAlreadyUsed)
		}

		store := s.store.WithTrx(tx)
		previous, err := store.Supersede(ctx, tenantID)
		if err != nil {
			return err
		}
		if previous != nil {
			if _, err := keys.Revoke(ctx, previous.LicenseKeyID, now); err != nil {
				return err
			}
		}

		assignment := &TenantLicense{
			ID:           s.node.Generate().String(),
			TenantID:     tenantID,
			LicenseKeyID: key.ID,
			ActivatedAt:  now,
			ExpiresAt:    now.Add(key.Duration()),
			Status:       AssignmentActive,
		}
		if err := store.Create(ctx, assignment); err != nil {
			return err
		}

		claimed, err := keys.MarkActive(ctx, key.ID, tenantID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errutil.Conflict("license key already used", ErrKeyAlreadyUsed)
		}

		if err := s.enforcer.WithTrx(tx).Reactivate(ctx, tenantID); err != nil {
			return err
		}

		result = &ActivationResult{
			TenantID:     tenantID,
			LicenseID:    assignment.ID,
			LicenseKeyID: key.ID,
			KeyCode:      key.KeyCode,
			DurationDays: key.DurationDays,
			ActivatedAt:  assignment.ActivatedAt,
			ExpiresAt:    assignment.ExpiresAt,
		}
		if previous != nil {
			result.SupersededLicenseID = previous.ID
		}
		return nil
	})
	if err != nil {
		var be errutil.BaseError
		if errors.As(err, &be) {
			activationTotal.WithLabelValues(string(be.Code)).Inc()
			zapLog.Warn("license activation rejected", zap.String("key", licensekey.Mask(code)), zap.Error(err))
			return nil, err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			activationTotal.WithLabelValues(string(errutil.StatusConflict)).Inc()
			zapLog.Warn("concurrent activation for tenant", zap.Error(err))
			return nil, errutil.Conflict("another license activation is in progress", err)
		}
		activationTotal.WithLabelValues("error").Inc()
		zapLog.Error("failed to activate license", zap.String("key", licensekey.Mask(code)), zap.Error(err))
		return nil, errutil.Internal("failed to activate license", err)
	}

	activationTotal.WithLabelValues("success").Inc()
	zapLog.Info("license activated",
		zap.String("key", licensekey.Mask(code)),
		zap.String("license_id", result.LicenseID),
		zap.Time("expires_at", result.ExpiresAt),
	)

	return result, nil
}
