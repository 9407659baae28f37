package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/i18n"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// DeletionHandler handles the product deletion check and delete endpoints
type DeletionHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewDeletionHandler creates a new deletion handler
func NewDeletionHandler(svc *service.StockService, log *logger.Logger) *DeletionHandler {
	return &DeletionHandler{
		service: svc,
		logger:  log,
	}
}

// Check reports whether the product can be deleted and what a delete removes
func (h *DeletionHandler) Check(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.CheckDeletable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	localizeCheck(r.Context(), check)
	httputil.JSON(w, http.StatusOK, check)
}

// Delete deletes the product. A product with batches needs ?confirm=true.
// Blocked and unconfirmed requests answer 409 with the check that stopped them.
func (h *DeletionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmed := false
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.BadRequest("confirm must be true or false"))
			return
		}
		confirmed = v
	}

	result, err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"), confirmed)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	localizeCheck(r.Context(), result.Check)

	status := http.StatusOK
	switch result.Outcome {
	case domain.OutcomeBlocked:
		status = http.StatusConflict
	case domain.OutcomeAborted:
		status = http.StatusConflict
		result.Check.Message = i18n.TFromContext(r.Context(), "deletion.aborted") + " " + result.Check.Message
	case domain.OutcomeDeleted:
		result.Check.Message = i18n.TFromContext(r.Context(), "deletion.deleted")
	}

	httputil.JSON(w, status, result)
}

func localizeCheck(ctx context.Context, check *domain.DeletionCheck) {
	check.Message = i18n.TFromContext(ctx, check.MessageKey(), map[string]string{
		"count": strconv.Itoa(check.BatchCount),
	})
}
