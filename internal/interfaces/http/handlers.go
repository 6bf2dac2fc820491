package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/library-acquisition/internal/application/retry"
	"github.com/garyjia/library-acquisition/internal/application/service"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services     Services
	logger       Logger
	retryOptions []retry.Option
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger, retryOptions ...retry.Option) *Handlers {
	return &Handlers{
		services:     services,
		logger:       logger,
		retryOptions: retryOptions,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Reasons []string    `json:"reasons,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// AcquisitionResponse represents an acquisition request in API responses
type AcquisitionResponse struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Kind            string           `json:"kind"`
	Requester       entity.Requester `json:"requester"`
	CatalogRecordID string           `json:"catalog_record_id"`
	ItemID          string           `json:"item_id"`
	VendorID        string           `json:"vendor_id,omitempty"`
	Copies          int              `json:"copies"`
	PaymentMethod   string           `json:"payment_method"`
	BudgetCode      string           `json:"budget_code,omitempty"`
	Price           *string          `json:"price,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	Delivery        string           `json:"delivery"`
	Comments        string           `json:"comments,omitempty"`
	IssuedDate      string           `json:"issued_date"`
	UpdatedAt       string           `json:"updated_at"`
	Version         int64            `json:"version"`
}

// CreateAcquisitionRequest is the body of POST /api/acquisitions
type CreateAcquisitionRequest struct {
	Kind            string              `json:"kind"`
	Requester       entity.Requester    `json:"requester"`
	CatalogRecordID string              `json:"catalog_record_id"`
	Copies          int                 `json:"copies"`
	PaymentMethod   string              `json:"payment_method"`
	BudgetCode      string              `json:"budget_code"`
	Price           decimal.NullDecimal `json:"price"`
	Currency        string              `json:"currency"`
	Delivery        string              `json:"delivery"`
	Comments        string              `json:"comments"`
}

// ConfirmAcquisitionRequest is the body of POST /api/acquisitions/:id/confirm
type ConfirmAcquisitionRequest struct {
	VendorID string              `json:"vendor_id"`
	Price    decimal.NullDecimal `json:"price"`
	Currency string              `json:"currency"`
	Comments string              `json:"comments"`
}

// CancelAcquisitionRequest is the optional body of POST /api/acquisitions/:id/cancel
type CancelAcquisitionRequest struct {
	Reason string `json:"reason"`
}

// ListAcquisitionsRequest represents query parameters for listing requests
type ListAcquisitionsRequest struct {
	Status string `form:"status"`
	Kind   string `form:"kind"`
	List   string `form:"list"`
}

// ListAcquisitionsResponse is a work queue, named or ad hoc
type ListAcquisitionsResponse struct {
	List *service.NamedList `json:"list,omitempty"`
	Rows []service.ListRow  `json:"rows"`
}

// ItemReturnedResponse tells circulation whether the workflow took the return
type ItemReturnedResponse struct {
	ItemID  string `json:"item_id"`
	Handled bool   `json:"handled"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateAcquisition handles POST /api/acquisitions
func (h *Handlers) CreateAcquisition(c *gin.Context) {
	var body CreateAcquisitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.services.Workflow.Create(c.Request.Context(), appwf.CreateInput{
		Kind:            entity.Kind(body.Kind),
		Requester:       body.Requester,
		CatalogRecordID: body.CatalogRecordID,
		Copies:          body.Copies,
		PaymentMethod:   entity.PaymentMethod(body.PaymentMethod),
		BudgetCode:      body.BudgetCode,
		Price:           body.Price,
		Currency:        body.Currency,
		Delivery:        entity.Delivery(body.Delivery),
		Comments:        body.Comments,
	})
	if err != nil {
		h.writeError(c, "create acquisition", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toAcquisitionResponse(req),
	})
}

// ListAcquisitions handles GET /api/acquisitions
func (h *Handlers) ListAcquisitions(c *gin.Context) {
	var query ListAcquisitionsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	var (
		resp ListAcquisitionsResponse
		err  error
	)
	if query.List != "" {
		resp.List, resp.Rows, err = h.services.Lists.Named(c.Request.Context(), query.List)
	} else {
		resp.Rows, err = h.services.Lists.List(c.Request.Context(), domainwf.State(query.Status), entity.Kind(query.Kind))
	}
	if err != nil {
		h.writeError(c, "list acquisitions", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// GetAcquisition handles GET /api/acquisitions/:id
func (h *Handlers) GetAcquisition(c *gin.Context) {
	req, err := h.services.Workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get acquisition", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toAcquisitionResponse(req),
	})
}

// ConfirmAcquisition handles POST /api/acquisitions/:id/confirm
func (h *Handlers) ConfirmAcquisition(c *gin.Context) {
	var body ConfirmAcquisitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	if !body.Price.Valid {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   "confirm rejected",
			Reasons: []string{"price is required"},
		})
		return
	}

	in := appwf.ConfirmInput{
		VendorID: body.VendorID,
		Price:    body.Price.Decimal,
		Currency: body.Currency,
		Comments: body.Comments,
	}
	h.transition(c, "confirm", func(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
		return h.services.Workflow.Confirm(ctx, id, in)
	})
}

// ReceiveAcquisition handles POST /api/acquisitions/:id/receive
func (h *Handlers) ReceiveAcquisition(c *gin.Context) {
	h.transition(c, "receive", h.services.Workflow.Receive)
}

// CancelAcquisition handles POST /api/acquisitions/:id/cancel
func (h *Handlers) CancelAcquisition(c *gin.Context) {
	var body CancelAcquisitionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.badRequest(c, "invalid request body", err)
			return
		}
	}

	h.transition(c, "cancel", func(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
		return h.services.Workflow.Cancel(ctx, id, body.Reason)
	})
}

// DeclineAcquisition handles POST /api/acquisitions/:id/decline
func (h *Handlers) DeclineAcquisition(c *gin.Context) {
	h.transition(c, "decline", h.services.Workflow.Decline)
}

// DeliverAcquisition handles POST /api/acquisitions/:id/deliver
func (h *Handlers) DeliverAcquisition(c *gin.Context) {
	h.transition(c, "deliver", h.services.Workflow.Deliver)
}

// AcquisitionEvents handles GET /api/acquisitions/:id/events
func (h *Handlers) AcquisitionEvents(c *gin.Context) {
	history, err := h.services.History.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "load history", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// AcquisitionActions handles GET /api/acquisitions/:id/actions
func (h *Handlers) AcquisitionActions(c *gin.Context) {
	inspection, err := h.services.Workflow.Inspect(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "inspect acquisition", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: inspection})
}

// ItemReturned handles POST /api/items/:id/returned
func (h *Handlers) ItemReturned(c *gin.Context) {
	itemID := c.Param("id")

	var handled bool
	err := retry.OnConflict(c.Request.Context(), func(ctx context.Context) error {
		var err error
		handled, err = h.services.Workflow.FinalizeOnReturn(ctx, itemID)
		return err
	}, h.retryOptions...)
	if err != nil {
		h.writeError(c, "finalize return", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ItemReturnedResponse{ItemID: itemID, Handled: handled},
	})
}

// UserHolds handles GET /api/users/:id/holds
func (h *Handlers) UserHolds(c *gin.Context) {
	sections, err := h.services.Holds.CurrentHolds(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "load holds", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sections})
}

// ExportReport handles GET /api/reports/acquisitions.xlsx
func (h *Handlers) ExportReport(c *gin.Context) {
	var query ListAcquisitionsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	data, err := h.services.Reports.Export(c.Request.Context(), domainwf.State(query.Status), entity.Kind(query.Kind))
	if err != nil {
		h.writeError(c, "export report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="acquisitions.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ListVendors handles GET /api/vendors
func (h *Handlers) ListVendors(c *gin.Context) {
	vendors, err := h.services.Vendors.List(c.Request.Context())
	if err != nil {
		h.writeError(c, "list vendors", err)
		return
	}
	if vendors == nil {
		vendors = []*entity.Vendor{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vendors})
}

// CreateVendor handles POST /api/vendors
func (h *Handlers) CreateVendor(c *gin.Context) {
	var body service.VendorInput
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	vendor, err := h.services.Vendors.Create(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, "create vendor", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: vendor})
}

// GetVendor handles GET /api/vendors/:id
func (h *Handlers) GetVendor(c *gin.Context) {
	vendor, err := h.services.Vendors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get vendor", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}

// transition runs op against the :id request, reloading and retrying while
// it loses optimistic concurrency races
func (h *Handlers) transition(c *gin.Context, name string, op func(ctx context.Context, id string) (*entity.AcquisitionRequest, error)) {
	id := c.Param("id")

	var req *entity.AcquisitionRequest
	err := retry.OnConflict(c.Request.Context(), func(ctx context.Context) error {
		var err error
		req, err = op(ctx, id)
		return err
	}, h.retryOptions...)
	if err != nil {
		h.writeError(c, name, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toAcquisitionResponse(req),
	})
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error("Invalid request", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}

// toAcquisitionResponse converts domain entity to API response
func toAcquisitionResponse(req *entity.AcquisitionRequest) AcquisitionResponse {
	resp := AcquisitionResponse{
		ID:              req.ID,
		Status:          req.Status.String(),
		Kind:            string(req.Kind),
		Requester:       req.Requester,
		CatalogRecordID: req.CatalogRecordID,
		ItemID:          req.ItemID,
		VendorID:        req.VendorID,
		Copies:          req.Copies,
		PaymentMethod:   string(req.PaymentMethod),
		BudgetCode:      req.BudgetCode,
		Currency:        req.Currency,
		Delivery:        string(req.Delivery),
		Comments:        req.Comments,
		IssuedDate:      req.IssuedDate.Format(time.RFC3339),
		UpdatedAt:       req.UpdatedAt.Format(time.RFC3339),
		Version:         req.Version,
	}

	if req.Price.Valid {
		price := req.Price.Decimal.StringFixed(2)
		resp.Price = &price
	}

	return resp
}
