package licensekey

import (
	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/services/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func ProvideCodec(cfg *config.Config) (*Codec, error) {
	return NewCodec(cfg.Licensing.KeyPrefix)
}

var Module = fx.Module("licensekey.module",
	fx.Provide(
		ProvideCodec,
		func(s *tenant.Store) TenantLookup { return s },
		NewStore,
		NewGenerator,
		NewService,
	),
)

var Server = fx.Module("licensekey.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}
