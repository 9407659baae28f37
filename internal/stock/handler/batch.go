package handler

import (
	"net/http"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// BatchHandler handles batch endpoints
type BatchHandler struct {
	products *service.ProductService
	stock    *service.StockService
	logger   *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(products *service.ProductService, stock *service.StockService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		products: products,
		stock:    stock,
		logger:   log,
	}
}

type batchRequest struct {
	BatchNumber  string          `json:"batch_number" validate:"required,max=100"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ExpiryDate   string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	ImportDate   string          `json:"import_date" validate:"omitempty,datetime=2006-01-02"`
}

// ListByProduct lists the product's in-stock batches in consumption order
func (h *BatchHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	views, err := h.stock.ListOrderedBatches(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, views)
}

// Create registers a batch for the product
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	batch := domain.Batch{
		ProductID:    chi.URLParam(r, "id"),
		BatchNumber:  req.BatchNumber,
		CurrentStock: req.CurrentStock,
	}
	// Layouts were checked by the validator
	if req.ExpiryDate != "" {
		d, _ := time.Parse(dateLayout, req.ExpiryDate)
		batch.ExpiryDate = &d
	}
	if req.ImportDate != "" {
		batch.ImportDate, _ = time.Parse(dateLayout, req.ImportDate)
	}

	if err := h.products.CreateBatch(r.Context(), &batch); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, batch)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batch, err := h.products.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Deactivate takes a batch out of stock
func (h *BatchHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeactivateBatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
