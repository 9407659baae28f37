package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Stock Register"

var registerHeaders = []string{
	"Product", "Code", "Category", "Unit", "Total Stock",
	"Active Batches", "Expired Batches", "Nearest Expiry", "Expiry Status", "Stock Level",
}

// ExportStockRegister renders the in-stock summaries as an XLSX workbook
func (s *StockService) ExportStockRegister(ctx context.Context) ([]byte, error) {
	summaries, err := s.ListStock(ctx, ListStockOptions{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, fmt.Errorf("stock register: %w", err)
	}

	header := make([]interface{}, len(registerHeaders))
	for i, h := range registerHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(registerSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("stock register: header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("stock register: style: %w", err)
	}
	if err := f.SetCellStyle(registerSheet, "A1", "J1", bold); err != nil {
		return nil, fmt.Errorf("stock register: style: %w", err)
	}
	if err := f.SetColWidth(registerSheet, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("stock register: width: %w", err)
	}

	for i, summary := range summaries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("stock register: row %d: %w", i+2, err)
		}
		row := []interface{}{
			summary.ProductName,
			summary.ProductCode,
			string(summary.Category),
			string(summary.Unit),
			summary.TotalCurrentStock.InexactFloat64(),
			summary.ActiveBatchCount,
			summary.ExpiredBatchCount,
			formatDate(summary),
			string(summary.ExpiryStatus),
			string(summary.StockLevel),
		}
		if err := f.SetSheetRow(registerSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("stock register: row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("stock register: write: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportStockRegisterPDF renders the in-stock summaries as a landscape PDF table
func (s *StockService) ExportStockRegisterPDF(ctx context.Context) ([]byte, error) {
	summaries, err := s.ListStock(ctx, ListStockOptions{})
	if err != nil {
		return nil, err
	}

	widths := []float64{58, 26, 22, 14, 26, 22, 22, 26, 24, 22}

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(registerSheet, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, registerSheet, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 6, "Generated "+s.now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range registerHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, summary := range summaries {
		cells := []string{
			tr(summary.ProductName),
			tr(summary.ProductCode),
			string(summary.Category),
			string(summary.Unit),
			summary.TotalCurrentStock.String(),
			fmt.Sprint(summary.ActiveBatchCount),
			fmt.Sprint(summary.ExpiredBatchCount),
			formatDate(summary),
			string(summary.ExpiryStatus),
			string(summary.StockLevel),
		}
		for i, c := range cells {
			align := "L"
			if i >= 4 && i <= 6 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("stock register pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(summary domain.StockSummary) string {
	if summary.NearestExpiryDate == nil {
		return ""
	}
	return summary.NearestExpiryDate.Format("2006-01-02")
}
