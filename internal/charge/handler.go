package charge

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
	rg.POST("/charge", h.createGroup)
	rg.GET("/charge", h.listGroups)
	rg.GET("/charge/groups/:groupId", h.getGroup)
	rg.PATCH("/charge/groups/:groupId", h.updateGroup)
	rg.DELETE("/charge/groups/:groupId", h.deleteGroup)
	rg.POST("/charge/groups/:groupId/lock", h.lockGroup)
	rg.POST("/charge/groups/:groupId/unlock", h.unlockGroup)
	rg.POST("/charge/lines", h.createLine)
	rg.GET("/charge/lines", h.listLines)
	rg.PATCH("/charge/lines/:lineId", h.updateLine)
	rg.DELETE("/charge/lines/:lineId", h.deleteLine)
	rg.GET("/charge/summary", h.orderSummary)
}

type createGroupRequest struct {
	OrderID     string `json:"orderId" binding:"required"`
	DispatchID  string `json:"dispatchId"`
	Stage       string `json:"stage" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) createGroup(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	g, err := h.svc.CreateGroup(c.Request.Context(), CreateGroupInput{
		OrderID:     req.OrderID,
		DispatchID:  req.DispatchID,
		Stage:       Stage(req.Stage),
		Reason:      req.Reason,
		Description: req.Description,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) getGroup(c *gin.Context) {
	g, err := h.svc.GetGroup(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) listGroups(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.svc.ListGroups(c.Request.Context(), c.Query("orderId"), (page-1)*size, size)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "pageSize": size})
}

type updateGroupRequest struct {
	Stage       *string `json:"stage"`
	Reason      *string `json:"reason"`
	Description *string `json:"description"`
}

func (h *Handler) updateGroup(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	in := UpdateGroupInput{Reason: req.Reason, Description: req.Description}
	if req.Stage != nil {
		st := Stage(*req.Stage)
		in.Stage = &st
	}
	g, err := h.svc.UpdateGroup(c.Request.Context(), c.Param("groupId"), in, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) deleteGroup(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.DeleteGroup(c.Request.Context(), c.Param("groupId"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) lockGroup(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.Lock(c.Request.Context(), c.Param("groupId"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isLocked": true})
}

func (h *Handler) unlockGroup(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.Unlock(c.Request.Context(), c.Param("groupId"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isLocked": false})
}

type createLineRequest struct {
	GroupID   string           `json:"groupId" binding:"required"`
	Side      string           `json:"side" binding:"required"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	TaxRate   *decimal.Decimal `json:"taxRate"`
	TaxAmount *decimal.Decimal `json:"taxAmount"`
	Memo      string           `json:"memo"`
}

func (h *Handler) createLine(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req createLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	l, err := h.svc.CreateLine(c.Request.Context(), req.GroupID, CreateLineInput{
		Side:      Side(req.Side),
		Amount:    req.Amount,
		TaxRate:   req.TaxRate,
		TaxAmount: req.TaxAmount,
		Memo:      req.Memo,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *Handler) listLines(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.svc.ListLines(c.Request.Context(), LineFilter{
		GroupID:   c.Query("groupId"),
		Side:      Side(c.Query("side")),
		Offset:    (page - 1) * size,
		Limit:     size,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "pageSize": size})
}

type updateLineRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	TaxRate   *decimal.Decimal `json:"taxRate"`
	TaxAmount *decimal.Decimal `json:"taxAmount"`
	Memo      *string          `json:"memo"`
}

func (h *Handler) updateLine(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	l, err := h.svc.UpdateLine(c.Request.Context(), c.Param("lineId"), UpdateLineInput{
		Amount:    req.Amount,
		TaxRate:   req.TaxRate,
		TaxAmount: req.TaxAmount,
		Memo:      req.Memo,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) deleteLine(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	if err := h.svc.DeleteLine(c.Request.Context(), c.Param("lineId"), actor); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) orderSummary(c *gin.Context) {
	ids := c.QueryArray("orderId")
	summaries, err := h.svc.OrderChargeSummary(c.Request.Context(), ids)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
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
