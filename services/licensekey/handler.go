package licensekey

import (
	"net/http"

	"entitlement-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const operatorHeader = "X-Operator-ID"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/v1/license-keys")
	g.POST("", h.GenerateKeys)
	g.GET("", h.ListKeys)
	g.POST("/:key_id/revoke", h.RevokeKey)
}

func (h *Handler) GenerateKeys(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	req.CreatedBy = c.GetHeader(operatorHeader)
	if req.CreatedBy == "" {
		_ = c.Error(errutil.Unauthorized("operator identity required", nil))
		return
	}

	keys, err := h.service.GenerateKeys(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"keys": keys})
}

func (h *Handler) ListKeys(c *gin.Context) {
	var req ListKeysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}

	resp, err := h.service.ListKeys(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RevokeKey(c *gin.Context) {
	key, err := h.service.RevokeKey(c.Request.Context(), c.Param("key_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, key)
}
