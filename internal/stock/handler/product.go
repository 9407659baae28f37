package handler

import (
	"net/http"
	"strconv"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product catalogue endpoints
type ProductHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

type productRequest struct {
	ProductName     string           `json:"product_name" validate:"required,max=200"`
	ProductCode     string           `json:"product_code" validate:"required,max=50"`
	HSNCode         *string          `json:"hsn_code" validate:"omitempty,numeric,max=8"`
	Category        string           `json:"category" validate:"required,oneof=api excipient solvent other"`
	Unit            string           `json:"unit" validate:"required,oneof=kg litre ton piece"`
	PackagingType   string           `json:"packaging_type" validate:"max=100"`
	DefaultSupplier string           `json:"default_supplier" validate:"max=200"`
	Description     *string          `json:"description"`
	TotalQuantity   *decimal.Decimal `json:"total_quantity"`
	PerPackWeight   *decimal.Decimal `json:"per_pack_weight"`
	PackType        *string          `json:"pack_type" validate:"omitempty,oneof=Bag Drum Tin Carton Box Container Other"`
	IsActive        *bool            `json:"is_active"`
}

func (req *productRequest) toProduct() *domain.Product {
	p := &domain.Product{
		ProductName:     req.ProductName,
		ProductCode:     req.ProductCode,
		HSNCode:         req.HSNCode,
		Category:        domain.Category(req.Category),
		Unit:            domain.Unit(req.Unit),
		PackagingType:   req.PackagingType,
		DefaultSupplier: req.DefaultSupplier,
		Description:     req.Description,
		TotalQuantity:   req.TotalQuantity,
		PerPackWeight:   req.PerPackWeight,
	}
	if req.PackType != nil {
		pt := domain.PackType(*req.PackType)
		p.PackType = &pt
	}
	return p
}

func decodeProduct(r *http.Request) (*productRequest, error) {
	var req productRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		return nil, err
	}
	if err := httputil.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// List lists products. Inactive products are included with ?include_inactive=true.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category: domain.Category(q.Get("category")),
		Search:   q.Get("search"),
	}
	if raw := q.Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.BadRequest("include_inactive must be true or false"))
			return
		}
		filter.IncludeInactive = v
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, &httputil.Meta{Total: int64(len(products))})
}

// Create creates a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProduct(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	product := req.toProduct()
	if err := h.service.CreateProduct(r.Context(), product); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, product)
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Update replaces a product's editable fields. The active flag only changes
// when the body carries is_active.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProduct(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	product := req.toProduct()
	product.ID = chi.URLParam(r, "id")
	if err := h.service.UpdateProduct(r.Context(), product, req.IsActive); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Deactivate hides a product from stock views
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
