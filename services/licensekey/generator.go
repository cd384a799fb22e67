package licensekey

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"time"

	"entitlement-controlplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinDurationDays = 1
	MaxDurationDays = 365
	MinQuantity     = 1
	MaxQuantity     = 100

	maxAttempts = 10
	// no 0, 1, I or O
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrGenerationExhausted = errors.New("could not produce a unique license key")

type GenerateRequest struct {
	DurationDays int `json:"duration_days"`
	Quantity     int `json:"quantity"`
	// AssignedTenantID reserves the keys for one tenant. Reserved keys are
	// stored as unused, not active: they grant nothing until that tenant
	// redeems them, and no other tenant can.
	AssignedTenantID *string `json:"assigned_tenant_id"`
	Notes            string  `json:"notes"`
	CreatedBy        string  `json:"-"`
}

func (r GenerateRequest) Validate() error {
	var details []errutil.Detail
	if r.DurationDays < MinDurationDays || r.DurationDays > MaxDurationDays {
		details = append(details, errutil.Detail{Field: "duration_days", Message: "must be between 1 and 365"})
	}
	if r.Quantity < MinQuantity || r.Quantity > MaxQuantity {
		details = append(details, errutil.Detail{Field: "quantity", Message: "must be between 1 and 100"})
	}
	if r.AssignedTenantID != nil && *r.AssignedTenantID == "" {
		details = append(details, errutil.Detail{Field: "assigned_tenant_id", Message: "must not be empty"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid generate request", nil, errutil.WithDetails(details...))
	}
	return nil
}

// TenantLookup is satisfied by the tenant store; it confirms a pre-assigned
// tenant exists before keys are bound to it.
type TenantLookup interface {
	Exists(ctx context.Context, tenantID string) (bool, error)
}

// Generator mints batches of unused keys. A batch is written in a single
// transaction, so callers see all keys or none.
type Generator struct {
	db      *gorm.DB
	node    *snowflake.Node
	codec   *Codec
	store   *Store
	tenants TenantLookup
	rand    io.Reader
	now     func() time.Time
}

func NewGenerator(db *gorm.DB, node *snowflake.Node, codec *Codec, tenants TenantLookup) *Generator {
	return &Generator{
		db:      db,
		node:    node,
		codec:   codec,
		store:   NewStore(db),
		tenants: tenants,
		rand:    rand.Reader,
		now:     time.Now,
	}
}

func (g *Generator) Generate(ctx context.Context, req GenerateRequest) ([]*LicenseKey, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.AssignedTenantID != nil && g.tenants != nil {
		ok, err := g.tenants.Exists(ctx, *req.AssignedTenantID)
		if err != nil {
			zapLog.Error("failed to check assigned tenant", zap.Error(err))
			return nil, errutil.Internal("failed to generate license keys", err)
		}
		if !ok {
			return nil, errutil.NotFound("assigned tenant not found", nil)
		}
	}

	now := g.now().UTC()
	keys := make([]*LicenseKey, 0, req.Quantity)

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := g.store.WithTrx(tx)
		seen := make(map[string]struct{}, req.Quantity)

		for i := 0; i < req.Quantity; i++ {
			code, err := g.uniqueCode(ctx, store, seen)
			if err != nil {
				return err
			}
			seen[code] = struct{}{}

			keys = append(keys, &LicenseKey{
				ID:               g.node.Generate().String(),
				CreatedAt:        now,
				UpdatedAt:        now,
				KeyCode:          code,
				DurationDays:     req.DurationDays,
				Status:           StatusUnused,
				AssignedTenantID: req.AssignedTenantID,
				CreatedBy:        req.CreatedBy,
				Notes:            req.Notes,
			})
		}

		return store.CreateBatch(ctx, keys)
	})
	if err != nil {
		if errors.Is(err, ErrGenerationExhausted) {
			zapLog.Error("license key space exhausted", zap.Int("quantity", req.Quantity))
			return nil, errutil.Exhausted("could not generate unique license keys, retry later", err)
		}
		zapLog.Error("failed to generate license keys", zap.Error(err))
		return nil, errutil.Internal("failed to generate license keys", err)
	}

	zapLog.Info("license keys generated",
		zap.Int("quantity", len(keys)),
		zap.Int("duration_days", req.DurationDays),
		zap.String("created_by", req.CreatedBy),
	)

	return keys, nil
}

func (g *Generator) uniqueCode(ctx context.Context, store *Store, seen map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, err := randomAlphaNumeric(g.rand, BodyLength)
		if err != nil {
			return "", err
		}
		code := g.codec.Compose(body)

		if _, dup := seen[code]; dup {
			continue
		}
		exists, err := store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

func randomAlphaNumeric(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		num, err := rand.Int(r, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[num.Int64()]
	}
	return string(b), nil
}
