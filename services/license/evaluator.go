package license

import (
	"fmt"
	"math"
	"time"

	"entitlement-controlplane/services/tenant"
)

type AccessState string

const (
	StateTrialActive    AccessState = "trial_active"
	StateLicensed       AccessState = "licensed"
	StateExpiredInGrace AccessState = "expired_in_grace"
	StateSuspended      AccessState = "suspended"
	// StateUnavailable is returned when the inputs could not be loaded. Access
	// is denied but no suspension is recorded.
	StateUnavailable AccessState = "unavailable"
)

func (s AccessState) String() string {
	switch s {
	case StateTrialActive, StateLicensed, StateExpiredInGrace, StateSuspended, StateUnavailable:
		return string(s)
	default:
		return ""
	}
}

type AccessResult struct {
	TenantID      string      `json:"tenant_id"`
	State         AccessState `json:"state"`
	IsValid       bool        `json:"is_valid"`
	Warning       bool        `json:"warning"`
	DaysRemaining int         `json:"days_remaining"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	Message       string      `json:"message"`
}

type EvaluationInput struct {
	Tenant     *tenant.Tenant
	Assignment *TenantLicense
	Now        time.Time
}

// Evaluator decides access from a tenant snapshot. It performs no I/O.
type Evaluator struct {
	grace time.Duration
}

func NewEvaluator(grace time.Duration) Evaluator {
	return Evaluator{grace: grace}
}

// Evaluate applies, in order: running trial, running license, license in
// grace, otherwise suspended. Only an assignment with status active counts.
func (e Evaluator) Evaluate(in EvaluationInput) AccessResult {
	t, a, now := in.Tenant, in.Assignment, in.Now
	res := AccessResult{TenantID: t.ID}

	if t.Status == tenant.Trial && now.Before(t.TrialEndsAt) {
		res.State = StateTrialActive
		res.IsValid = true
		res.DaysRemaining = ceilDays(t.TrialEndsAt.Sub(now))
		res.ExpiresAt = timePtr(t.TrialEndsAt)
		res.Message = fmt.Sprintf("Trial active, %d day(s) remaining", res.DaysRemaining)
		return res
	}

	if a != nil && a.Status == AssignmentActive {
		if now.Before(a.ExpiresAt) {
			res.State = StateLicensed
			res.IsValid = true
			res.DaysRemaining = ceilDays(a.ExpiresAt.Sub(now))
			res.ExpiresAt = timePtr(a.ExpiresAt)
			res.Message = fmt.Sprintf("License active, %d day(s) remaining", res.DaysRemaining)
			return res
		}

		graceEnd := a.ExpiresAt.Add(e.grace)
		if now.Before(graceEnd) {
			res.State = StateExpiredInGrace
			res.IsValid = true
			res.Warning = true
			res.DaysRemaining = ceilDays(graceEnd.Sub(now))
			res.ExpiresAt = timePtr(a.ExpiresAt)
			res.Message = fmt.Sprintf("License expired, %d grace day(s) left before suspension. Activate a new license key.", res.DaysRemaining)
			return res
		}
	}

	res.State = StateSuspended
	res.Message = "No active trial or license. Activate a license key to restore access."
	return res
}

// DaysRemaining is the whole-day count shown to tenants and operators; a
// partial day counts as a full one.
func DaysRemaining(until, now time.Time) int {
	return ceilDays(until.Sub(now))
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func denied(tenantID, message string) *AccessResult {
	return &AccessResult{
		TenantID: tenantID,
		State:    StateUnavailable,
		Message:  message,
	}
}
