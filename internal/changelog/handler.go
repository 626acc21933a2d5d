package changelog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

type Handler struct {
	logs *Logger
}

func NewHandler(logs *Logger) *Handler {
	return &Handler{logs: logs}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/changelogs/:entityType/:entityId", h.list)
}

func (h *Handler) list(c *gin.Context) {
	entityType := EntityType(c.Param("entityType"))
	switch entityType {
	case EntityOrder, EntityCompany, EntityDriver, EntityUser, EntityAddress, EntityWarning:
	default:
		apperr.Respond(c, apperr.Newf(apperr.KindValidation, "unknown entity type: %s", entityType))
		return
	}

	page, size := 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil && v >= 1 && v <= 200 {
		size = v
	}

	records, total, err := h.logs.List(c.Request.Context(), entityType, c.Param("entityId"), (page-1)*size, size)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records, "total": total, "page": page, "pageSize": size})
}
