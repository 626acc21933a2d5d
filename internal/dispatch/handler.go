package dispatch

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/dispatch", h.create)
	rg.GET("/orders/:id/dispatch", h.getByOrder)
	rg.POST("/broker/dispatches/accept", h.accept)
	rg.GET("/broker/dispatches", h.list)
	rg.GET("/broker/dispatches/:id", h.get)
	rg.PATCH("/broker/dispatches/:id/fields", h.updateFields)
	rg.POST("/broker/dispatches/:id/close", h.close)
	rg.POST("/broker/dispatches/:id/reopen", h.reopen)
	rg.DELETE("/broker/dispatches/:id", h.remove)
}

type createRequest struct {
	DriverID          string          `json:"driverId" binding:"required"`
	VehicleNumber     string          `json:"vehicleNumber"`
	VehicleType       string          `json:"vehicleType"`
	VehicleWeight     string          `json:"vehicleWeight"`
	AgreedFreightCost decimal.Decimal `json:"agreedFreightCost"`
	BrokerMemo        string          `json:"brokerMemo"`
}

func (h *Handler) create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	detail, err := h.svc.Create(c.Request.Context(), c.Param("id"), CreateInput{
		DriverID:          req.DriverID,
		VehicleNumber:     req.VehicleNumber,
		VehicleType:       req.VehicleType,
		VehicleWeight:     req.VehicleWeight,
		AgreedFreightCost: req.AgreedFreightCost,
		BrokerMemo:        req.BrokerMemo,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

type acceptRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required"`
}

func (h *Handler) accept(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	created, err := h.svc.AcceptDispatches(c.Request.Context(), req.OrderIDs, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dispatches": created, "accepted": len(created)})
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) getByOrder(c *gin.Context) {
	d, err := h.svc.GetByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) list(c *gin.Context) {
	page, size := pagination(c)
	f := ListFilter{
		BrokerCompanyID:  c.Query("brokerCompanyId"),
		AssignedDriverID: c.Query("driverId"),
		BrokerFlowStatus: c.Query("brokerFlowStatus"),
		Offset:           (page - 1) * size,
		Limit:            size,
	}
	if v := c.Query("closed"); v != "" {
		closed := v == "true"
		f.Closed = &closed
	}
	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "pageSize": size})
}

type updateFieldsRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
	Reason string         `json:"reason"`
}

func (h *Handler) updateFields(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req updateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	updated, err := h.svc.UpdateFields(c.Request.Context(), c.Param("id"), req.Fields, actor, req.Reason)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) close(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.Close(c.Request.Context(), c.Param("id"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isClosed": true})
}

func (h *Handler) reopen(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.Reopen(c.Request.Context(), c.Param("id"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isClosed": false})
}

func (h *Handler) remove(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pagination(c *gin.Context) (page, size int) {
	page, size = 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil && v >= 1 && v <= 200 {
		size = v
	}
	return page, size
}
