package tenant

import (
	"context"
	"errors"
	"time"

	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/notification"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrTenantNotFound = errors.New("tenant not found")

const suspensionReason = "license_expired"

// Enforcer moves tenants in and out of the suspended state. Both transitions
// are idempotent.
type Enforcer struct {
	db       *gorm.DB
	notifier notification.Notifier
	now      func() time.Time
}

type EnforcerParams struct {
	fx.In
	DB       *gorm.DB
	Notifier notification.Notifier `optional:"true"`
}

func NewEnforcer(p EnforcerParams) *Enforcer {
	return &Enforcer{
		db:       p.DB,
		notifier: p.Notifier,
		now:      time.Now,
	}
}

// WithTrx binds the enforcer to an open transaction so a reactivation commits
// or rolls back together with the caller's writes.
func (e *Enforcer) WithTrx(tx *gorm.DB) *Enforcer {
	if tx == nil {
		return e
	}
	return &Enforcer{db: tx, notifier: e.notifier, now: e.now}
}

// Suspend reports whether this call performed the transition. A tenant that is
// already suspended is left untouched and no notice is sent.
func (e *Enforcer) Suspend(ctx context.Context, tenantID string) (bool, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("tenant_id", tenantID),
	)

	now := e.now().UTC()
	res := e.db.WithContext(ctx).
		Model(&Tenant{}).
		Where("id = ? AND status <> ?", tenantID, Suspended).
		Updates(map[string]any{
			"status":              Suspended,
			"subscription_status": Suspended,
			"suspended_at":        now,
		})
	if res.Error != nil {
		zapLog.Error("failed to suspend tenant", zap.Error(res.Error))
		return false, errutil.Internal("failed to suspend tenant", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := e.db.WithContext(ctx).Model(&Tenant{}).Where("id = ?", tenantID).Count(&count).Error; err != nil {
			return false, errutil.Internal("failed to suspend tenant", err)
		}
		if count == 0 {
			return false, errutil.NotFound("tenant not found", ErrTenantNotFound)
		}
		return false, nil
	}

	zapLog.Info("tenant suspended", zap.Time("suspended_at", now))

	if e.notifier != nil {
		if err := e.notifier.SendSuspensionNotice(ctx, notification.SuspensionNotice{
			TenantID:    tenantID,
			SuspendedAt: now,
			Reason:      suspensionReason,
		}); err != nil {
			// the suspension itself already committed
			zapLog.Error("failed to send suspension notice", zap.Error(err))
		}
	}

	return true, nil
}

// Reactivate is called on successful license activation. Calling it for a
// tenant that is already active is a no-op apart from refreshing the row.
func (e *Enforcer) Reactivate(ctx context.Context, tenantID string) error {
	res := e.db.WithContext(ctx).
		Model(&Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"status":              Active,
			"subscription_status": Active,
			"suspended_at":        nil,
		})
	if res.Error != nil {
		zap.L().Error("failed to reactivate tenant", zap.String("tenant_id", tenantID), zap.Error(res.Error))
		return errutil.Internal("failed to reactivate tenant", res.Error)
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("tenant not found", ErrTenantNotFound)
	}
	return nil
}
