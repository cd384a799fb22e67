package tenant

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("tenant.module",
	fx.Provide(
		NewService,
		NewEnforcer,
		func(db *gorm.DB) *Store { return NewStore(db) },
	),
)

var Server = fx.Module("tenant.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}
