package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound_WrapsSentinel(t *testing.T) {
	err := fmt.Errorf("load product: %w", errors.NotFound("product"))

	assert.True(t, errors.Is(err, errors.ErrNotFound))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "product not found", appErr.Message)
}

func TestDeletionBlocked(t *testing.T) {
	err := errors.DeletionBlocked("delivery_challan_items")

	assert.True(t, errors.Is(err, errors.ErrDeletionBlocked))
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.Equal(t, "delivery_challan_items", err.Details["reason"])
	assert.Contains(t, err.Localize(context.Background()), "delivery challans")
}

func TestPartialCascadeFailure(t *testing.T) {
	cause := fmt.Errorf("rollback: connection reset")
	err := errors.PartialCascadeFailure(cause)

	assert.True(t, errors.Is(err, errors.ErrPartialCascadeFailure))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "PARTIAL_CASCADE_FAILURE", err.Code)
}

func TestInvalidInput_Localize(t *testing.T) {
	err := errors.InvalidInput(map[string]string{"total_quantity": "must not be negative"})

	ctx := i18n.WithLocale(context.Background(), i18n.LocaleHindi)
	assert.NotEqual(t, "invalid input", err.Localize(ctx))
	assert.Equal(t, "invalid input", err.Localize(context.Background()))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestNew_WithoutKeyUsesMessage(t *testing.T) {
	err := errors.New("TEAPOT", "short and stout", http.StatusTeapot)
	assert.Equal(t, "short and stout", err.Localize(context.Background()))
	assert.Equal(t, "short and stout", err.Error())
}
