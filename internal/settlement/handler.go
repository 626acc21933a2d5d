package settlement

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/charge"
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
	rg.POST("/settlements/sales", h.createSale)
	rg.POST("/settlements/purchase", h.createPurchase)
	rg.GET("/broker/dispatches/:id/sales-summary", h.salesSummary)
	rg.GET("/broker/dispatches/:id/purchase-summary", h.purchaseSummary)
	rg.POST("/settlements/bundles", h.buildBundle)
	rg.GET("/settlements/bundles", h.listBundles)
	rg.GET("/settlements/bundles/:id/items", h.bundleItems)
	rg.POST("/settlements/bundles/:id/finalize", h.finalize)
	rg.POST("/settlements/bundle-items/:itemId/adjustments", h.addAdjustment)
	rg.GET("/settlements/waiting", h.waiting)
}

type invoiceItemRequest struct {
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	TaxAmount   decimal.Decimal  `json:"taxAmount"`
}

func toItems(reqs []invoiceItemRequest) []InvoiceItem {
	items := make([]InvoiceItem, len(reqs))
	for i, r := range reqs {
		items[i] = InvoiceItem{
			Description: r.Description,
			Amount:      r.Amount,
			TaxRate:     r.TaxRate,
			TaxAmount:   r.TaxAmount,
		}
	}
	return items
}

type createSaleRequest struct {
	OrderID   string               `json:"orderId" binding:"required"`
	CompanyID string               `json:"companyId"`
	Items     []invoiceItemRequest `json:"items" binding:"required"`
	IssueDate string               `json:"issueDate"`
}

func (h *Handler) createSale(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	sale, err := h.svc.CreateSalesInvoice(c.Request.Context(), CreateSaleInput{
		OrderID:   req.OrderID,
		CompanyID: req.CompanyID,
		Items:     toItems(req.Items),
		IssueDate: req.IssueDate,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

type createPurchaseRequest struct {
	OrderID   string               `json:"orderId" binding:"required"`
	CompanyID string               `json:"companyId"`
	DriverID  string               `json:"driverId"`
	Items     []invoiceItemRequest `json:"items" binding:"required"`
	IssueDate string               `json:"issueDate"`
}

func (h *Handler) createPurchase(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	purchase, err := h.svc.CreatePurchaseInvoice(c.Request.Context(), CreatePurchaseInput{
		OrderID:   req.OrderID,
		CompanyID: req.CompanyID,
		DriverID:  req.DriverID,
		Items:     toItems(req.Items),
		IssueDate: req.IssueDate,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func (h *Handler) salesSummary(c *gin.Context) {
	summary, err := h.svc.SummaryForDispatch(c.Request.Context(), c.Param("id"), charge.SideSales)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) purchaseSummary(c *gin.Context) {
	summary, err := h.svc.SummaryForDispatch(c.Request.Context(), c.Param("id"), charge.SidePurchase)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type buildBundleRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required"`
	Type     string   `json:"type" binding:"required"`
	Name     string   `json:"name"`
}

func (h *Handler) buildBundle(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req buildBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	b, err := h.svc.BuildBundle(c.Request.Context(), BuildBundleInput{
		OrderIDs: req.OrderIDs,
		Type:     charge.Side(req.Type),
		Name:     req.Name,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) listBundles(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.svc.ListBundles(c.Request.Context(),
		c.Query("type"), c.Query("status"), (page-1)*size, size)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "pageSize": size})
}

func (h *Handler) bundleItems(c *gin.Context) {
	b, details, err := h.svc.BundleItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle": b, "items": details})
}

func (h *Handler) finalize(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	b, err := h.svc.Finalize(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type adjustmentRequest struct {
	Label     string           `json:"label"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	TaxAmount *decimal.Decimal `json:"taxAmount"`
}

func (h *Handler) addAdjustment(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("actor required"))
		return
	}
	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	adj, err := h.svc.AddAdjustment(c.Request.Context(), c.Param("itemId"), AdjustmentInput{
		Label:     req.Label,
		Amount:    req.Amount,
		TaxAmount: req.TaxAmount,
	}, actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, adj)
}

func (h *Handler) waiting(c *gin.Context) {
	rows, err := h.svc.Waiting(c.Request.Context(),
		c.Query("companyId"), c.Query("dateFrom"), c.Query("dateTo"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
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
