package license

import (
	"net/http"

	"entitlement-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/tenants/:tenant_id/license", h.Activate)
	r.GET("/v1/tenants/:tenant_id/access", h.CheckAccess)
}

func (h *Handler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	res, err := h.service.Activate(c.Request.Context(), c.Param("tenant_id"), req.KeyCode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// CheckAccess always answers with a verdict. A denied verdict is a normal
// 200 response; only an unknown tenant is a 404.
func (h *Handler) CheckAccess(c *gin.Context) {
	res, err := h.service.CheckAccess(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, res)
}
