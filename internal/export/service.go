package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/utils"
)

const SheetName = "Expenses"

var headers = []string{
	"Date",
	"Title",
	"Category",
	"Amount",
	"Description",
	"AI Processed",
	"Created At",
}

// ExpenseLister is the slice of the store the export needs.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.Expense, error)
}

// Service produces XLSX bytes for expense exports.
type Service struct {
	expenses ExpenseLister
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(expenses ExpenseLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{expenses: expenses, now: time.Now, logger: logger}
}

// ExportExpensesXLSX returns an XLSX workbook (as bytes) for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all expenses.
func (s *Service) ExportExpensesXLSX(ctx context.Context, from, to *time.Time) ([]byte, int, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := startOfDay(*from)
		fromDate = &f
	}
	if to != nil {
		t := endOfDay(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := endOfDay(s.now().UTC())
		toDate = &t
	}
	if fromDate != nil && toDate != nil && fromDate.After(*toDate) {
		return nil, 0, common.NewValidationError("from must not be after to")
	}

	recs, err := s.expenses.ListExpenses(ctx, fromDate, toDate)
	if err != nil {
		return nil, 0, fmt.Errorf("query expenses: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, 0, err
	}
	idx, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(idx)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, r.Date.UTC().Format(utils.DateLayout))
		write(2, r.Title)
		write(3, r.Category)
		amount, _ := r.Amount.Round(2).Float64()
		write(4, amount)
		write(5, utils.Truncate(utils.StrOrEmpty(r.Description), 140))
		write(6, r.IsAIProcessed)
		write(7, r.CreatedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12) // date
	_ = f.SetColWidth(SheetName, "B", "B", 28) // title
	_ = f.SetColWidth(SheetName, "C", "C", 12) // category
	_ = f.SetColWidth(SheetName, "D", "D", 12) // amount
	_ = f.SetColWidth(SheetName, "E", "E", 48) // description
	_ = f.SetColWidth(SheetName, "G", "G", 22) // created

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx write: %w", err)
	}

	common.LoggerFromContext(ctx, s.logger).Info("export.xlsx.ok",
		zap.Int("rows", len(recs)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), len(recs), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
