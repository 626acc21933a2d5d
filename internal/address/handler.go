package address

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	rg.POST("/addresses", h.create)
	rg.GET("/addresses", h.list)
	rg.GET("/addresses/:id", h.get)
	rg.PATCH("/addresses/:id/fields", h.updateFields)
	rg.DELETE("/addresses/:id", h.remove)
}

type createRequest struct {
	CompanyID  string  `json:"companyId"`
	Name       string  `json:"name" binding:"required"`
	RoadAddr   string  `json:"roadAddr"`
	DetailAddr string  `json:"detailAddr"`
	Contact    string  `json:"contact"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Memo       string  `json:"memo"`
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
	created, err := h.svc.Create(c.Request.Context(), CreateInput{
		CompanyID:  req.CompanyID,
		Name:       req.Name,
		RoadAddr:   req.RoadAddr,
		DetailAddr: req.DetailAddr,
		Contact:    req.Contact,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Memo:       req.Memo,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) list(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.svc.List(c.Request.Context(),
		c.Query("companyId"), c.Query("keyword"), (page-1)*size, size)
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
