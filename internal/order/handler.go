package order

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/middleware"
	"github.com/cargolink/cargolink/internal/snapshot"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the order endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders", h.create)
	rg.GET("/orders", h.list)
	rg.GET("/orders/:id", h.get)
	rg.PATCH("/orders/:id/fields", h.updateFields)
	rg.PUT("/orders/:id/status", h.updateStatus)
	rg.POST("/orders/batch", h.batch)
}

type addressPayload struct {
	Name       string  `json:"name"`
	RoadAddr   string  `json:"roadAddr"`
	DetailAddr string  `json:"detailAddr"`
	Contact    string  `json:"contact"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (p addressPayload) snapshot() snapshot.Address {
	return snapshot.Address{
		Name:       p.Name,
		RoadAddr:   p.RoadAddr,
		DetailAddr: p.DetailAddr,
		Contact:    p.Contact,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
	}
}

type createRequest struct {
	CompanyID              string          `json:"companyId"`
	ContactName            string          `json:"contactName"`
	ContactPhone           string          `json:"contactPhone"`
	CargoName              string          `json:"cargoName" binding:"required"`
	RequestedVehicleType   string          `json:"requestedVehicleType"`
	RequestedVehicleWeight string          `json:"requestedVehicleWeight"`
	PickupAddress          addressPayload  `json:"pickupAddress"`
	DeliveryAddress        addressPayload  `json:"deliveryAddress"`
	PickupDate             string          `json:"pickupDate"`
	PickupTime             string          `json:"pickupTime"`
	DeliveryDate           string          `json:"deliveryDate"`
	DeliveryTime           string          `json:"deliveryTime"`
	EstimatedDistanceKm    decimal.Decimal `json:"estimatedDistanceKm"`
	EstimatedAmount        decimal.Decimal `json:"estimatedAmount"`
	PriceType              string          `json:"priceType"`
	TaxType                string          `json:"taxType"`
	Memo                   string          `json:"memo"`
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

	o, err := h.svc.Create(c.Request.Context(), CreateInput{
		CompanyID:              req.CompanyID,
		ContactName:            req.ContactName,
		ContactPhone:           req.ContactPhone,
		CargoName:              req.CargoName,
		RequestedVehicleType:   req.RequestedVehicleType,
		RequestedVehicleWeight: req.RequestedVehicleWeight,
		PickupAddress:          req.PickupAddress.snapshot(),
		DeliveryAddress:        req.DeliveryAddress.snapshot(),
		PickupDate:             req.PickupDate,
		PickupTime:             req.PickupTime,
		DeliveryDate:           req.DeliveryDate,
		DeliveryTime:           req.DeliveryTime,
		EstimatedDistanceKm:    req.EstimatedDistanceKm,
		EstimatedAmount:        req.EstimatedAmount,
		PriceType:              req.PriceType,
		TaxType:                req.TaxType,
		Memo:                   req.Memo,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) list(c *gin.Context) {
	page, size := pagination(c)
	filter := ListFilter{
		CompanyID:  c.Query("companyId"),
		FlowStatus: FlowStatus(c.Query("flowStatus")),
		DateFrom:   c.Query("dateFrom"),
		DateTo:     c.Query("dateTo"),
		Offset:     (page - 1) * size,
		Limit:      size,
	}
	if v := c.Query("isCanceled"); v != "" {
		b := v == "true"
		filter.Canceled = &b
	}

	orders, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total, "page": page, "pageSize": size})
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

	o, err := h.svc.UpdateFields(c.Request.Context(), c.Param("id"), req.Fields, actor, req.Reason)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	change, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), FlowStatus(strings.TrimSpace(req.Status)), actor, req.Reason)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

type batchRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required"`
	Action   string   `json:"action" binding:"required"`
	Status   string   `json:"status"`
	Reason   string   `json:"reason"`
	Mode     string   `json:"mode"`
}

func (h *Handler) batch(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.svc.Batch(c.Request.Context(), BatchInput{
		OrderIDs: req.OrderIDs,
		Action:   BatchAction(req.Action),
		Status:   FlowStatus(req.Status),
		Reason:   req.Reason,
		Mode:     Atomicity(req.Mode),
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func pagination(c *gin.Context) (page, size int) {
	page, size = 1, 20
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(c.Query("pageSize")); err == nil && n > 0 && n <= 200 {
		size = n
	}
	return page, size
}
