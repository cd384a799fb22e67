package licensekey

import (
	"context"
	"testing"
	"time"

	"entitlement-controlplane/pkg/db/pagination"
	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReleaser struct {
	released []string
}

func (f *fakeReleaser) ReleaseKey(_ context.Context, _ *gorm.DB, keyID string, _ time.Time) error {
	f.released = append(f.released, keyID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeReleaser, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &LicenseKey{})
	releaser := &fakeReleaser{}
	svc := NewService(ServiceParams{
		DB:        db,
		Generator: newTestGenerator(t, db),
		Releaser:  releaser,
	})
	return svc, releaser, db
}

func TestGenerateFiveRevokeTwo(t *testing.T) {
	svc, releaser, _ := newTestService(t)
	ctx := context.Background()

	keys, err := svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 5, CreatedBy: "ops"})
	require.NoError(t, err)
	require.Len(t, keys, 5)

	for _, k := range keys[:2] {
		revoked, err := svc.RevokeKey(ctx, k.ID)
		require.NoError(t, err)
		require.Equal(t, StatusRevoked, revoked.Status)
		require.NotNil(t, revoked.RevokedAt)
	}

	resp, err := svc.ListKeys(ctx, ListKeysRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Keys, 5)
	require.Equal(t, int64(3), resp.Counts[StatusUnused])
	require.Equal(t, int64(2), resp.Counts[StatusRevoked])
	require.Equal(t, int64(0), resp.Counts[StatusActive])
	require.Equal(t, int64(0), resp.Counts[StatusExpired])
	require.False(t, resp.PageInfo.HasMore)

	unused, err := svc.ListKeys(ctx, ListKeysRequest{Status: "unused"})
	require.NoError(t, err)
	require.Len(t, unused.Keys, 3)
	require.Equal(t, int64(3), unused.Counts[StatusUnused])
	require.Equal(t, int64(2), unused.Counts[StatusRevoked])

	// unused keys have no assignment to release
	require.Empty(t, releaser.released)
}

func TestRevokeKeyIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	keys, err := svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 1})
	require.NoError(t, err)

	first, err := svc.RevokeKey(ctx, keys[0].ID)
	require.NoError(t, err)

	second, err := svc.RevokeKey(ctx, keys[0].ID)
	require.NoError(t, err)
	require.Equal(t, StatusRevoked, second.Status)
	require.True(t, first.RevokedAt.Equal(*second.RevokedAt))
}

func TestRevokeActiveKeyReleasesAssignment(t *testing.T) {
	svc, releaser, db := newTestService(t)
	ctx := context.Background()

	keys, err := svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 1})
	require.NoError(t, err)

	ok, err := NewStore(db).MarkActive(ctx, keys[0].ID, "tenant-1", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.RevokeKey(ctx, keys[0].ID)
	require.NoError(t, err)
	require.Equal(t, []string{keys[0].ID}, releaser.released)
}

func TestRevokeKeyNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RevokeKey(context.Background(), "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestListKeysRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListKeys(context.Background(), ListKeysRequest{Status: "archived"})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestListKeysPaginates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 5})
	require.NoError(t, err)

	seen := map[string]bool{}
	req := ListKeysRequest{Pagination: pagination.Pagination{Limit: 2}}
	for page := 0; page < 3; page++ {
		resp, err := svc.ListKeys(ctx, req)
		require.NoError(t, err)
		for _, k := range resp.Keys {
			require.False(t, seen[k.ID])
			seen[k.ID] = true
		}
		if !resp.PageInfo.HasMore {
			break
		}
		req.Cursor = resp.PageInfo.NextCursor
	}
	require.Len(t, seen, 5)
}

func TestListKeysByTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := "tenant-1"

	_, err := svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 2, AssignedTenantID: &tenantID})
	require.NoError(t, err)
	_, err = svc.GenerateKeys(ctx, GenerateRequest{DurationDays: 30, Quantity: 3})
	require.NoError(t, err)

	resp, err := svc.ListKeys(ctx, ListKeysRequest{TenantID: tenantID})
	require.NoError(t, err)
	require.Len(t, resp.Keys, 2)
	require.Equal(t, int64(2), resp.Counts[StatusUnused])
}
