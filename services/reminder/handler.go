package reminder

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
	r.POST("/v1/reminders/scan", h.RunScan)
	r.GET("/v1/licenses/expiring", h.ListExpiring)
}

func (h *Handler) RunScan(c *gin.Context) {
	res, err := h.service.Run(c.Request.Context(), TriggerHTTP)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type listExpiringQuery struct {
	WithinDays int `form:"within_days"`
}

func (h *Handler) ListExpiring(c *gin.Context) {
	var q listExpiringQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}

	rows, err := h.service.ListExpiringLicenses(c.Request.Context(), q.WithinDays)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"licenses": rows})
}
