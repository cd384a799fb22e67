package license

import (
	"entitlement-controlplane/services/licensekey"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("license.module",
	fx.Provide(
		NewService,
		NewStore,
		fx.Annotate(
			func(s *Store) *Store { return s },
			fx.As(new(licensekey.AssignmentReleaser)),
		),
	),
)

var ServerModule = fx.Module("license.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}
