package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/kpi", h.kpi)
	rg.GET("/dashboard/status-stats", h.statusStats)
}

func (h *Handler) kpi(c *gin.Context) {
	in := KPIInput{
		CompanyID: c.Query("companyId"),
		Period:    c.Query("period"),
		Basis:     c.Query("basis"),
	}
	if in.Period == "custom" {
		var err error
		in.From, err = time.ParseInLocation("2006-01-02", c.Query("dateFrom"), KST)
		if err != nil {
			apperr.Respond(c, apperr.Validation("dateFrom must be YYYY-MM-DD"))
			return
		}
		in.To, err = time.ParseInLocation("2006-01-02", c.Query("dateTo"), KST)
		if err != nil {
			apperr.Respond(c, apperr.Validation("dateTo must be YYYY-MM-DD"))
			return
		}
		// Window is half-open, so include the whole dateTo day.
		in.To = in.To.AddDate(0, 0, 1)
	}

	k, err := h.svc.KPI(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, k)
}

func (h *Handler) statusStats(c *gin.Context) {
	counts, total, err := h.svc.StatusStats(c.Request.Context(),
		c.Query("companyId"), c.Query("dateFrom"), c.Query("dateTo"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": counts, "total": total})
}
