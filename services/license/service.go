package license

import (
	"time"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/services/licensekey"
	"entitlement-controlplane/services/tenant"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	codec     *licensekey.Codec
	keys      *licensekey.Store
	tenants   *tenant.Store
	store     *Store
	enforcer  *tenant.Enforcer
	evaluator Evaluator
	now       func() time.Time
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Codec    *licensekey.Codec
	Enforcer *tenant.Enforcer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		codec:     p.Codec,
		keys:      licensekey.NewStore(p.DB),
		tenants:   tenant.NewStore(p.DB),
		store:     NewStore(p.DB),
		enforcer:  p.Enforcer,
		evaluator: NewEvaluator(p.Config.Licensing.GracePeriod()),
		now:       time.Now,
	}
}
