package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/testutil"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM products WHERE id = $1").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows("id"))

	repo := repository.NewProductRepository(mockDB.Database())
	_, err := repo.GetByID(context.Background(), "p1")

	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_Create_DuplicateCode(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "products_product_code_key"})

	repo := repository.NewProductRepository(mockDB.Database())
	err := repo.Create(context.Background(), &domain.Product{
		ProductName: "Paracetamol",
		ProductCode: "PCM-01",
		Category:    domain.CategoryAPI,
		Unit:        domain.UnitKg,
		IsActive:    true,
	})

	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Contains(t, appErr.Message, "product code")
}

func TestProductRepository_List_Filters(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("WHERE is_active = true AND category = $1 AND (product_name ILIKE $2 OR product_code ILIKE $2) ORDER BY product_name, id").
		WithArgs(domain.CategorySolvent, "%acet%").
		WillReturnRows(testutil.MockRows("id", "product_name", "product_code", "category", "unit", "is_active", "created_at", "updated_at").
			AddRow("p1", "Acetone", "ACE-01", "solvent", "litre", true, now, now))

	repo := repository.NewProductRepository(mockDB.Database())
	products, err := repo.List(context.Background(), repository.ProductFilter{
		Category:   domain.CategorySolvent,
		Search:     "acet",
		SortByName: true,
	})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Acetone", products[0].ProductName)
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_SetActive_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE products SET is_active = $2").
		WithArgs("p1", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := repository.NewProductRepository(mockDB.Database())
	err := repo.SetActive(context.Background(), "p1", false)

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBatchRepository_ListInStockByProduct(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now()
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("WHERE product_id = $1 AND is_active = true AND current_stock > 0 ORDER BY expiry_date ASC NULLS LAST, batch_number, id").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows("id", "product_id", "batch_number", "current_stock", "expiry_date", "import_date", "is_active", "created_at", "updated_at").
			AddRow("b1", "p1", "B-01", "40.500", expiry, now, true, now, now).
			AddRow("b2", "p1", "B-02", "10", nil, now, true, now, now))

	repo := repository.NewBatchRepository(mockDB.Database())
	batches, err := repo.ListInStockByProduct(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.True(t, decimal.RequireFromString("40.5").Equal(batches[0].CurrentStock))
	require.NotNil(t, batches[0].ExpiryDate)
	assert.Nil(t, batches[1].ExpiryDate)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepository_Create_NegativeStock(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("INSERT INTO batches").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "batches_current_stock_non_negative"})

	repo := repository.NewBatchRepository(mockDB.Database())
	err := repo.Create(context.Background(), &domain.Batch{
		ProductID:    "p1",
		BatchNumber:  "B-01",
		CurrentStock: decimal.NewFromInt(-1),
	})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must not be negative", appErr.Details["current_stock"])
}

func TestReferenceRepository_FindBlockingReference(t *testing.T) {
	t.Run("sales reference wins", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM sales_invoice_items WHERE product_id = $1 LIMIT 1").
			WithArgs("p1").
			WillReturnRows(testutil.MockRows("id").AddRow("s1"))

		repo := repository.NewReferenceRepository(mockDB.Database())
		reason, err := repo.FindBlockingReference(context.Background(), "p1")

		require.NoError(t, err)
		assert.Equal(t, domain.BlockedBySalesInvoices, reason)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("delivery reference", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM sales_invoice_items").WillReturnRows(testutil.MockRows("id"))
		mockDB.ExpectQuery("FROM delivery_challan_items WHERE product_id = $1 LIMIT 1").
			WillReturnRows(testutil.MockRows("id").AddRow("d1"))

		repo := repository.NewReferenceRepository(mockDB.Database())
		reason, err := repo.FindBlockingReference(context.Background(), "p1")

		require.NoError(t, err)
		assert.Equal(t, domain.BlockedByDeliveryChallans, reason)
	})

	t.Run("unreferenced", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM sales_invoice_items").WillReturnRows(testutil.MockRows("id"))
		mockDB.ExpectQuery("FROM delivery_challan_items").WillReturnRows(testutil.MockRows("id"))

		repo := repository.NewReferenceRepository(mockDB.Database())
		reason, err := repo.FindBlockingReference(context.Background(), "p1")

		require.NoError(t, err)
		assert.Empty(t, reason)
	})

	t.Run("query failure", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectQuery("FROM sales_invoice_items").WillReturnError(fmt.Errorf("connection reset"))

		repo := repository.NewReferenceRepository(mockDB.Database())
		_, err := repo.FindBlockingReference(context.Background(), "p1")

		assert.ErrorContains(t, err, "connection reset")
	})
}

// expectCascadePrelude sets up the lock and re-check queries that precede the deletes
func expectCascadePrelude(mockDB *testutil.MockDB, batchIDs ...string) {
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id FROM products WHERE id = $1 FOR UPDATE").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows("id").AddRow("p1"))
	mockDB.ExpectQuery("FROM sales_invoice_items").WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectQuery("FROM delivery_challan_items").WillReturnRows(testutil.MockRows("id"))

	rows := testutil.MockRows("id")
	for _, id := range batchIDs {
		rows.AddRow(id)
	}
	mockDB.ExpectQuery("SELECT id FROM batches WHERE product_id = $1 ORDER BY id FOR UPDATE").
		WithArgs("p1").
		WillReturnRows(rows)
}

func TestCascadeRepository_DeleteProduct(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	expectCascadePrelude(mockDB, "b1", "b2")
	mockDB.ExpectExec("DELETE FROM batch_documents WHERE batch_id = ANY($1)").
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mockDB.ExpectExec("DELETE FROM inventory_transactions WHERE batch_id = ANY($1)").
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 4))
	mockDB.ExpectExec("DELETE FROM finance_expenses WHERE batch_id = ANY($1)").
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM batches WHERE id = ANY($1)").
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mockDB.ExpectExec("DELETE FROM inventory_transactions WHERE product_id = $1").
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM product_files WHERE product_id = $1").
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM products WHERE id = $1").
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	repo := repository.NewCascadeRepository(mockDB.Database())
	report, err := repo.DeleteProduct(context.Background(), "p1", []string{"b2", "b1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, report.BatchIDs)
	require.Len(t, report.Steps, len(domain.CascadeSteps))
	counts := report.RowCounts()
	assert.Equal(t, int64(3), counts[domain.StepBatchDocuments])
	assert.Equal(t, int64(2), counts[domain.StepBatches])
	assert.Equal(t, int64(1), counts[domain.StepProduct])
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_NoBatches(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	expectCascadePrelude(mockDB)
	mockDB.ExpectExec("DELETE FROM inventory_transactions WHERE product_id = $1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM product_files WHERE product_id = $1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM products WHERE id = $1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	repo := repository.NewCascadeRepository(mockDB.Database())
	report, err := repo.DeleteProduct(context.Background(), "p1", nil)

	require.NoError(t, err)
	assert.Empty(t, report.BatchIDs)
	assert.Equal(t, int64(0), report.RowCounts()[domain.StepBatches])
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id FROM products WHERE id = $1 FOR UPDATE").
		WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectRollback()

	repo := repository.NewCascadeRepository(mockDB.Database())
	_, err := repo.DeleteProduct(context.Background(), "p1", nil)

	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_ReferencedInsideTransaction(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FOR UPDATE").WillReturnRows(testutil.MockRows("id").AddRow("p1"))
	mockDB.ExpectQuery("FROM sales_invoice_items").WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectQuery("FROM delivery_challan_items").WillReturnRows(testutil.MockRows("id").AddRow("d1"))
	mockDB.ExpectRollback()

	repo := repository.NewCascadeRepository(mockDB.Database())
	_, err := repo.DeleteProduct(context.Background(), "p1", nil)

	require.True(t, errors.Is(err, errors.ErrDeletionBlocked))
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(domain.BlockedByDeliveryChallans), appErr.Details["reason"])
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_BatchesChanged(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	expectCascadePrelude(mockDB, "b1", "b3")
	mockDB.ExpectRollback()

	repo := repository.NewCascadeRepository(mockDB.Database())
	_, err := repo.DeleteProduct(context.Background(), "p1", []string{"b1", "b2"})

	assert.True(t, errors.Is(err, errors.ErrConflict))
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_StepFailureRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	expectCascadePrelude(mockDB, "b1")
	mockDB.ExpectExec("DELETE FROM batch_documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM inventory_transactions WHERE batch_id").
		WillReturnError(fmt.Errorf("deadlock detected"))
	mockDB.ExpectRollback()

	repo := repository.NewCascadeRepository(mockDB.Database())
	_, err := repo.DeleteProduct(context.Background(), "p1", []string{"b1"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrPartialCascadeFailure))
	assert.ErrorContains(t, err, "deadlock detected")
	mockDB.ExpectationsWereMet(t)
}

func TestCascadeRepository_DeleteProduct_RollbackFailure(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	expectCascadePrelude(mockDB, "b1")
	mockDB.ExpectExec("DELETE FROM batch_documents").
		WillReturnError(fmt.Errorf("connection reset"))
	mockDB.ExpectRollback().WillReturnError(fmt.Errorf("connection closed"))

	repo := repository.NewCascadeRepository(mockDB.Database())
	_, err := repo.DeleteProduct(context.Background(), "p1", []string{"b1"})

	require.True(t, errors.Is(err, errors.ErrPartialCascadeFailure))
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "PARTIAL_CASCADE_FAILURE", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
