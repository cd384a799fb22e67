package tenant

import (
	"context"
	"strings"
	"time"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	node   *snowflake.Node
	config *config.Config
	store  *Store
	now    func() time.Time
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:   p.Node,
		config: p.Config,
		store:  NewStore(p.DB),
		now:    time.Now,
	}
}

type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// CreateTenant registers a tenant on a fresh trial.
func (s *Service) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errutil.ValidationFailed("name is required", nil, errutil.WithDetails(errutil.Detail{Field: "name", Message: "must not be empty"}))
	}

	slugName := req.Slug
	if slugName == "" {
		slugName = name
	}
	slugName = slug.Make(slugName)
	if slugName == "" {
		return nil, errutil.ValidationFailed("slug is invalid", nil, errutil.WithDetails(errutil.Detail{Field: "slug", Message: "must contain letters or digits"}))
	}

	exist, err := s.store.FindBySlug(ctx, slugName)
	if err != nil {
		zapLog.Error("failed query get tenant by slug", zap.Error(err))
		return nil, errutil.Internal("failed to check existing tenant", err)
	}

	if exist != nil {
		zapLog.Warn("tenant already exists", zap.String("slug", slugName))
		return nil, errutil.Conflict("tenant already exists", nil)
	}

	now := s.now().UTC()
	t := &Tenant{
		ID:                 s.node.Generate().String(),
		Name:               name,
		Slug:               slugName,
		Status:             Trial,
		SubscriptionStatus: Trial,
		TrialEndsAt:        now.Add(s.config.Licensing.TrialPeriod()),
	}

	if err := s.store.Create(ctx, t); err != nil {
		zapLog.Error("failed to create tenant", zap.Error(err))
		return nil, errutil.Internal("failed to create tenant", err)
	}

	zapLog.Info("tenant created",
		zap.String("tenant_id", t.ID),
		zap.Time("trial_ends_at", t.TrialEndsAt),
	)

	return t, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		zap.L().Error("failed query get tenant by id", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, errutil.Internal("failed to get tenant", err)
	}

	if t == nil {
		return nil, errutil.NotFound("tenant not found", ErrTenantNotFound)
	}

	return t, nil
}
