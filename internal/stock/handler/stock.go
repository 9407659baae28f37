package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// StockHandler serves stock summaries, the dashboard and the stock register
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// Summary returns one product's stock summary
func (h *StockHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SummarizeStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// List returns the summaries of products in stock
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	var opts service.ListStockOptions
	if raw := r.URL.Query().Get("include_empty"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.BadRequest("include_empty must be true or false"))
			return
		}
		opts.IncludeEmpty = v
	}

	summaries, err := h.service.ListStock(r.Context(), opts)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, summaries, &httputil.Meta{Total: int64(len(summaries))})
}

// Dashboard returns the stock overview
func (h *StockHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, d)
}

// Export serves the stock register as XLSX, or as PDF with ?format=pdf
func (h *StockHandler) Export(w http.ResponseWriter, r *http.Request) {
	var (
		data        []byte
		err         error
		contentType string
		ext         string
	)

	switch r.URL.Query().Get("format") {
	case "", "xlsx":
		data, err = h.service.ExportStockRegister(r.Context())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	case "pdf":
		data, err = h.service.ExportStockRegisterPDF(r.Context())
		contentType = "application/pdf"
		ext = "pdf"
	default:
		httputil.ErrorLocalized(w, r, errors.BadRequest("format must be xlsx or pdf"))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", ext).Msg("failed to generate stock register")
		httputil.ErrorLocalized(w, r, err)
		return
	}

	filename := fmt.Sprintf("stock-register-%s.%s", time.Now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

// CalculatePacks previews the pack count for a quantity and pack weight
func (h *StockHandler) CalculatePacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	total, err := domain.ParseQuantity("total_quantity", q.Get("total_quantity"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	weight, err := domain.ParseQuantity("per_pack_weight", q.Get("per_pack_weight"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	packs, err := domain.ComputePacks(total, weight)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]*int64{"calculated_packs": packs})
}
