package licensekey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeTenants struct {
	known map[string]bool
	err   error
}

func (f *fakeTenants) Exists(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[id], nil
}

// zeroReader makes every draw pick the first alphabet character.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func newTestGenerator(t *testing.T, db *gorm.DB) *Generator {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	codec, err := NewCodec("OWLTD")
	require.NoError(t, err)
	return NewGenerator(db, node, codec, &fakeTenants{known: map[string]bool{"tenant-1": true}})
}

func TestGenerateKeys(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)

	keys, err := g.Generate(context.Background(), GenerateRequest{
		DurationDays: 30,
		Quantity:     5,
		CreatedBy:    "ops@example.com",
		Notes:        "batch",
	})
	require.NoError(t, err)
	require.Len(t, keys, 5)

	codec, _ := NewCodec("OWLTD")
	seen := map[string]bool{}
	for _, k := range keys {
		require.Equal(t, StatusUnused, k.Status)
		require.Equal(t, 30, k.DurationDays)
		require.Nil(t, k.AssignedTenantID)
		require.True(t, strings.HasPrefix(k.KeyCode, "OWLTD-"))
		normalized, err := codec.Normalize(k.KeyCode)
		require.NoError(t, err)
		require.Equal(t, k.KeyCode, normalized)
		require.False(t, seen[k.KeyCode])
		seen[k.KeyCode] = true
	}

	var count int64
	require.NoError(t, db.Model(&LicenseKey{}).Count(&count).Error)
	require.Equal(t, int64(5), count)
}

func TestGenerateKeysUniqueAcrossBatches(t *testing.T) {
	if testing.Short() {
		t.Skip("generates 10000 keys")
	}
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 100; i++ {
		keys, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 365, Quantity: 100, CreatedBy: "ops"})
		require.NoError(t, err)
		for _, k := range keys {
			_, dup := seen[k.KeyCode]
			require.False(t, dup, k.KeyCode)
			seen[k.KeyCode] = struct{}{}
		}
	}
	require.Len(t, seen, 10000)
}

func TestGenerateKeysValidation(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)
	empty := ""

	cases := []GenerateRequest{
		{DurationDays: 0, Quantity: 1},
		{DurationDays: 366, Quantity: 1},
		{DurationDays: 30, Quantity: 0},
		{DurationDays: 30, Quantity: 101},
		{DurationDays: 30, Quantity: 1, AssignedTenantID: &empty},
	}
	for _, req := range cases {
		_, err := g.Generate(context.Background(), req)
		require.True(t, errutil.Is(err, errutil.StatusValidationFailed), "%+v", req)
	}

	var count int64
	require.NoError(t, db.Model(&LicenseKey{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateKeysBoundaries(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)

	keys, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 1, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, keys, 1)

	keys, err = g.Generate(context.Background(), GenerateRequest{DurationDays: 365, Quantity: 100})
	require.NoError(t, err)
	require.Len(t, keys, 100)
}

func TestGenerateKeysPreAssigned(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)
	tenantID := "tenant-1"

	keys, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 30, Quantity: 2, AssignedTenantID: &tenantID})
	require.NoError(t, err)
	for _, k := range keys {
		require.Equal(t, StatusUnused, k.Status)
		require.NotNil(t, k.AssignedTenantID)
		require.Equal(t, tenantID, *k.AssignedTenantID)
	}

	unknown := "tenant-404"
	_, err = g.Generate(context.Background(), GenerateRequest{DurationDays: 30, Quantity: 1, AssignedTenantID: &unknown})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestGenerateKeysExhaustedAgainstStore(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)
	g.rand = zeroReader{}

	keys, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 30, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, "OWLTD-AAAAA-AAAAA", keys[0].KeyCode)

	_, err = g.Generate(context.Background(), GenerateRequest{DurationDays: 30, Quantity: 1})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrGenerationExhausted))
	require.True(t, errutil.Is(err, errutil.StatusExhausted))
}

func TestGenerateKeysExhaustedWithinBatchPersistsNothing(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)
	g.rand = zeroReader{}

	_, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 30, Quantity: 3})
	require.True(t, errors.Is(err, ErrGenerationExhausted))

	var count int64
	require.NoError(t, db.Model(&LicenseKey{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateKeysStampsCreatedAt(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{})
	g := newTestGenerator(t, db)
	clock := testutil.NewClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	g.now = clock.Now

	keys, err := g.Generate(context.Background(), GenerateRequest{DurationDays: 7, Quantity: 1})
	require.NoError(t, err)
	require.True(t, keys[0].CreatedAt.Equal(clock.Now()))
}
