package license

import (
	"testing"
	"time"

	"entitlement-controlplane/services/tenant"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func trialTenant() *tenant.Tenant {
	return &tenant.Tenant{ID: "t1", Status: tenant.Trial, TrialEndsAt: t0.Add(72 * time.Hour)}
}

func activeAssignment(expiresAt time.Time) *TenantLicense {
	return &TenantLicense{ID: "l1", TenantID: "t1", Status: AssignmentActive, ExpiresAt: expiresAt}
}

func TestEvaluateTrialBoundaries(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := trialTenant()

	res := e.Evaluate(EvaluationInput{Tenant: tn, Now: tn.TrialEndsAt.Add(-time.Second)})
	require.Equal(t, StateTrialActive, res.State)
	require.True(t, res.IsValid)
	require.Equal(t, 1, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Now: tn.TrialEndsAt})
	require.Equal(t, StateSuspended, res.State)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Now: tn.TrialEndsAt.Add(time.Second)})
	require.Equal(t, StateSuspended, res.State)
	require.False(t, res.IsValid)
	require.Zero(t, res.DaysRemaining)
}

func TestEvaluateTrialDaysRemainingRoundsUp(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := trialTenant()

	res := e.Evaluate(EvaluationInput{Tenant: tn, Now: t0})
	require.Equal(t, 3, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Now: t0.Add(time.Hour)})
	require.Equal(t, 3, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Now: t0.Add(24 * time.Hour)})
	require.Equal(t, 2, res.DaysRemaining)
}

func TestEvaluateLicenseAndGraceBoundaries(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := &tenant.Tenant{ID: "t1", Status: tenant.Active, TrialEndsAt: t0.Add(72 * time.Hour)}
	expiresAt := t0.Add(40 * 24 * time.Hour)
	a := activeAssignment(expiresAt)

	res := e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: expiresAt.Add(-time.Second)})
	require.Equal(t, StateLicensed, res.State)
	require.True(t, res.IsValid)
	require.False(t, res.Warning)
	require.Equal(t, 1, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: expiresAt.Add(time.Second)})
	require.Equal(t, StateExpiredInGrace, res.State)
	require.True(t, res.IsValid)
	require.True(t, res.Warning)
	require.Equal(t, 7, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: expiresAt.Add(7*24*time.Hour - time.Second)})
	require.Equal(t, StateExpiredInGrace, res.State)
	require.Equal(t, 1, res.DaysRemaining)

	res = e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: expiresAt.Add(7*24*time.Hour + time.Second)})
	require.Equal(t, StateSuspended, res.State)
	require.False(t, res.IsValid)
}

func TestEvaluateTrialTakesPrecedenceOverLicense(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := trialTenant()
	a := activeAssignment(t0.Add(30 * 24 * time.Hour))

	res := e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: t0.Add(time.Hour)})
	require.Equal(t, StateTrialActive, res.State)
	require.Equal(t, 3, res.DaysRemaining)
}

func TestEvaluateIgnoresInactiveAssignments(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := &tenant.Tenant{ID: "t1", Status: tenant.Active, TrialEndsAt: t0}
	now := t0.Add(24 * time.Hour)

	for _, st := range []AssignmentStatus{AssignmentExpired, AssignmentRevoked} {
		a := activeAssignment(now.Add(24 * time.Hour))
		a.Status = st
		res := e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: now})
		require.Equal(t, StateSuspended, res.State, st)
	}
}

func TestEvaluateSuspendedTenantWithLicenseIsLicensed(t *testing.T) {
	e := NewEvaluator(7 * 24 * time.Hour)
	tn := &tenant.Tenant{ID: "t1", Status: tenant.Suspended, TrialEndsAt: t0}
	a := activeAssignment(t0.Add(10 * 24 * time.Hour))

	res := e.Evaluate(EvaluationInput{Tenant: tn, Assignment: a, Now: t0.Add(24 * time.Hour)})
	require.Equal(t, StateLicensed, res.State)
	require.Equal(t, 9, res.DaysRemaining)
}

func TestDaysRemaining(t *testing.T) {
	require.Equal(t, 30, DaysRemaining(t0.Add(30*24*time.Hour-time.Hour), t0))
	require.Equal(t, 30, DaysRemaining(t0.Add(30*24*time.Hour), t0))
	require.Equal(t, 1, DaysRemaining(t0.Add(time.Minute), t0))
	require.Equal(t, 0, DaysRemaining(t0, t0))
}
