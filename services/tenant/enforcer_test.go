package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/notification"
	"entitlement-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	notices []notification.SuspensionNotice
	err     error
}

func (f *fakeNotifier) SendExpiryReminder(context.Context, notification.ExpiryReminder) error {
	return nil
}

func (f *fakeNotifier) SendSuspensionNotice(_ context.Context, n notification.SuspensionNotice) error {
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, n)
	return nil
}

func seedTenant(t *testing.T, db *gorm.DB, id string, status TenantStatus) {
	t.Helper()
	require.NoError(t, db.Create(&Tenant{
		ID:                 id,
		Name:               id,
		Slug:               id,
		Status:             status,
		SubscriptionStatus: status,
		TrialEndsAt:        time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func TestSuspendIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t, &Tenant{})
	seedTenant(t, db, "t1", Trial)
	notifier := &fakeNotifier{}
	clock := testutil.NewClock(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))

	e := NewEnforcer(EnforcerParams{DB: db, Notifier: notifier})
	e.now = clock.Now

	changed, err := e.Suspend(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, changed)

	clock.Advance(time.Hour)
	changed, err = e.Suspend(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, changed)

	var got Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.Equal(t, Suspended, got.Status)
	require.Equal(t, Suspended, got.SubscriptionStatus)
	require.NotNil(t, got.SuspendedAt)
	require.True(t, got.SuspendedAt.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))

	require.Len(t, notifier.notices, 1)
	require.Equal(t, "t1", notifier.notices[0].TenantID)
}

func TestSuspendUnknownTenant(t *testing.T) {
	db := testutil.NewTestDB(t, &Tenant{})
	e := NewEnforcer(EnforcerParams{DB: db})

	_, err := e.Suspend(context.Background(), "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestSuspendNotifierFailureKeepsSuspension(t *testing.T) {
	db := testutil.NewTestDB(t, &Tenant{})
	seedTenant(t, db, "t1", Active)
	e := NewEnforcer(EnforcerParams{DB: db, Notifier: &fakeNotifier{err: errors.New("smtp down")}})

	changed, err := e.Suspend(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, changed)

	var got Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.True(t, got.IsSuspended())
}

func TestReactivateClearsSuspension(t *testing.T) {
	db := testutil.NewTestDB(t, &Tenant{})
	seedTenant(t, db, "t1", Trial)
	e := NewEnforcer(EnforcerParams{DB: db})

	_, err := e.Suspend(context.Background(), "t1")
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return e.WithTrx(tx).Reactivate(context.Background(), "t1")
	}))

	var got Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.Equal(t, Active, got.Status)
	require.Equal(t, Active, got.SubscriptionStatus)
	require.Nil(t, got.SuspendedAt)

	// already active
	require.NoError(t, e.Reactivate(context.Background(), "t1"))
}

func TestReactivateUnknownTenant(t *testing.T) {
	db := testutil.NewTestDB(t, &Tenant{})
	e := NewEnforcer(EnforcerParams{DB: db})

	err := e.Reactivate(context.Background(), "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}
