package license

import (
	"context"

	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/tenant"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const unavailableMessage = "Access could not be verified, try again shortly."

// CheckAccess evaluates the tenant and records the suspension when the trial
// and any license with its grace have both run out. It never grants access on
// failure: a missing tenant yields a denied result with a NotFound error, any
// other failure a denied result and a nil error.
func (s *Service) CheckAccess(ctx context.Context, tenantID string) (*AccessResult, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("tenant_id", tenantID),
	)

	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		zapLog.Error("failed to load tenant for access check", zap.Error(err))
		accessChecksTotal.WithLabelValues(string(StateUnavailable)).Inc()
		return denied(tenantID, unavailableMessage), nil
	}
	if t == nil {
		accessChecksTotal.WithLabelValues(string(StateUnavailable)).Inc()
		return denied(tenantID, "Tenant not found."), errutil.NotFound("tenant not found", tenant.ErrTenantNotFound)
	}

	assignment, err := s.store.FindActive(ctx, tenantID)
	if err != nil {
		zapLog.Error("failed to load license for access check", zap.Error(err))
		accessChecksTotal.WithLabelValues(string(StateUnavailable)).Inc()
		return denied(tenantID, unavailableMessage), nil
	}

	res := s.evaluator.Evaluate(EvaluationInput{
		Tenant:     t,
		Assignment: assignment,
		Now:        s.now().UTC(),
	})
	accessChecksTotal.WithLabelValues(string(res.State)).Inc()

	if res.State == StateSuspended && !t.IsSuspended() {
		if _, err := s.enforcer.Suspend(ctx, tenantID); err != nil {
			// the verdict stands even if recording it failed
			zapLog.Error("failed to suspend tenant", zap.Error(err))
		}
	}

	return &res, nil
}
