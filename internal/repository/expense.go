package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

const (
	tableExpenses    = "expenses"
	colID            = "id"
	colTitle         = "title"
	colAmount        = "amount"
	colCategory      = "category"
	colDate          = "date"
	colDescription   = "description"
	colIsAIProcessed = "is_ai_processed"
	colCreatedAt     = "created_at"
)

var expenseColumns = []string{colID, colTitle, colAmount, colCategory, colDate, colDescription, colIsAIProcessed, colCreatedAt}

type ExpenseRepository interface {
	CreateExpense(ctx context.Context, e *entity.Expense) (*entity.Expense, error)
	ListExpenses(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	CountExpenses(ctx context.Context) (int, error)
}

type expenseRepository struct {
	db     *DB
	now    func() time.Time
	logger *zap.Logger
}

func NewExpenseRepository(db *DB, logger *zap.Logger) ExpenseRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &expenseRepository{
		db:     db,
		now:    time.Now,
		logger: logger,
	}
}

func (r *expenseRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

// CreateExpense assigns id and createdAt, defaults date and category, and inserts the row.
func (r *expenseRepository) CreateExpense(ctx context.Context, e *entity.Expense) (*entity.Expense, error) {
	if e == nil {
		return nil, common.NewAppError("INVALID_INPUT", "expense is required", common.ErrInvalidInput)
	}
	now := r.now().UTC()

	rec := *e
	rec.ID = uuid.New()
	rec.CreatedAt = now
	if rec.Date.IsZero() {
		rec.Date = now
	}
	rec.Date = rec.Date.UTC()
	if rec.Category == "" {
		rec.Category = string(constants.Other)
	}
	rec.Amount = rec.Amount.Round(2)
	if rec.Amount.IsNegative() || rec.Amount.GreaterThan(constants.MaxAmount) {
		return nil, common.NewValidationError("amount must be between 0 and " + constants.MaxAmount.String())
	}

	var desc any
	if rec.Description != nil {
		desc = *rec.Description
	}

	query, args := r.builder().Insert(tableExpenses).
		Columns(expenseColumns...).
		Values(rec.ID, rec.Title, rec.Amount, rec.Category, rec.Date, desc, rec.IsAIProcessed, rec.CreatedAt).
		Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		common.LoggerFromContext(ctx, r.logger).Error("failed to create expense", zap.String("title", rec.Title), zap.Error(err))
		return nil, common.NewDatabaseError("failed to create expense", err)
	}

	common.LoggerFromContext(ctx, r.logger).Debug("expense created",
		zap.String("expense_id", rec.ID.String()),
		zap.Bool("ai", rec.IsAIProcessed),
	)
	return &rec, nil
}

// ListExpenses returns expenses newest first: by date, then by creation time. Bounds are inclusive.
func (r *expenseRepository) ListExpenses(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.Expense, error) {
	b := r.builder()
	sel := b.Select(expenseColumns...).From(b.Table(tableExpenses))

	var preds []*entsql.Predicate
	if fromDate != nil {
		preds = append(preds, entsql.GTE(colDate, fromDate.UTC()))
	}
	if toDate != nil {
		preds = append(preds, entsql.LTE(colDate, toDate.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	query, args := sel.OrderBy(entsql.Desc(colDate), entsql.Desc(colCreatedAt)).Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		common.LoggerFromContext(ctx, r.logger).Error("failed to list expenses", zap.Error(err))
		return nil, common.NewDatabaseError("failed to list expenses", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*entity.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, common.NewDatabaseError("failed to read expense", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewDatabaseError("failed to list expenses", err)
	}
	return result, nil
}

// DeleteExpense removes one expense; unknown ids yield common.ErrNotFound.
func (r *expenseRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	query, args := r.builder().Delete(tableExpenses).Where(entsql.EQ(colID, id)).Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		common.LoggerFromContext(ctx, r.logger).Error("failed to delete expense", zap.String("expense_id", id.String()), zap.Error(err))
		return common.NewDatabaseError("failed to delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewDatabaseError("failed to delete expense", err)
	}
	if n == 0 {
		return common.NewAppError("NOT_FOUND", "expense not found", common.ErrNotFound)
	}
	return nil
}

func (r *expenseRepository) CountExpenses(ctx context.Context) (int, error) {
	b := r.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableExpenses)).Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return 0, common.NewDatabaseError("failed to count expenses", err)
	}
	defer func() { _ = rows.Close() }()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, common.NewDatabaseError("failed to count expenses", err)
		}
	}
	return n, rows.Err()
}

func scanExpense(rows *entsql.Rows) (*entity.Expense, error) {
	var (
		e      entity.Expense
		id     string
		amount decimal.Decimal
		desc   sql.NullString
	)
	if err := rows.Scan(&id, &e.Title, &amount, &e.Category, &e.Date, &desc, &e.IsAIProcessed, &e.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid expense id %q: %w", id, err)
	}
	e.ID = parsed
	e.Amount = amount
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	if desc.Valid {
		d := desc.String
		e.Description = &d
	}
	return &e, nil
}
