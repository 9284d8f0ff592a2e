package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

func newTestRepo(t *testing.T) (*expenseRepository, *DB) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: "sqlite://" + filepath.Join(t.TempDir(), "test.db"), DialTimeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx), "schema creation is repeatable")

	repo := NewExpenseRepository(db, nil).(*expenseRepository)
	return repo, db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateExpense_RoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	desc := "morning"

	created, err := repo.CreateExpense(ctx, &entity.Expense{
		Title:       "Coffee",
		Amount:      decimal.RequireFromString("4.5"),
		Category:    "Food",
		Date:        day(2024, 5, 1),
		Description: &desc,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.IsAIProcessed)

	list, err := repo.ListExpenses(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Coffee", got.Title)
	assert.Equal(t, "4.50", got.Amount.StringFixed(2))
	assert.Equal(t, "Food", got.Category)
	assert.True(t, day(2024, 5, 1).Equal(got.Date))
	require.NotNil(t, got.Description)
	assert.Equal(t, "morning", *got.Description)
}

func TestCreateExpense_Defaults(t *testing.T) {
	repo, _ := newTestRepo(t)
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	created, err := repo.CreateExpense(context.Background(), &entity.Expense{Title: "Bus", Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, "Other", created.Category)
	assert.True(t, fixed.Equal(created.Date))
	assert.Nil(t, created.Description)
}

func TestCreateExpense_AmountRange(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, amount := range []string{"1000000000000", "-0.01", "1e400"} {
		_, err := repo.CreateExpense(ctx, &entity.Expense{Title: "x", Amount: decimal.RequireFromString(amount)})
		require.Error(t, err, amount)
		assert.True(t, errors.Is(err, common.ErrValidation), amount)
	}

	_, err := repo.CreateExpense(ctx, &entity.Expense{Title: "max", Amount: decimal.RequireFromString("999999999999.99")})
	require.NoError(t, err)
	n, err := repo.CountExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListExpenses_OrderAndRange(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	for _, e := range []struct {
		title string
		date  time.Time
	}{
		{"old", day(2024, 1, 10)},
		{"mid-a", day(2024, 3, 5)},
		{"new", day(2024, 5, 20)},
		{"mid-b", day(2024, 3, 5)},
	} {
		_, err := repo.CreateExpense(ctx, &entity.Expense{Title: e.title, Amount: decimal.NewFromInt(1), Date: e.date})
		require.NoError(t, err)
	}

	list, err := repo.ListExpenses(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid-b", "mid-a", "old"}, titles(list))

	again, err := repo.ListExpenses(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, list, again, "listing is idempotent")

	from, to := day(2024, 3, 1), day(2024, 3, 31)
	ranged, err := repo.ListExpenses(ctx, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid-b", "mid-a"}, titles(ranged))
}

func TestListExpenses_EmptyIsNotNil(t *testing.T) {
	repo, _ := newTestRepo(t)
	list, err := repo.ListExpenses(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteExpense(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.CreateExpense(ctx, &entity.Expense{Title: "a", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	b, err := repo.CreateExpense(ctx, &entity.Expense{Title: "b", Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteExpense(ctx, a.ID))

	list, err := repo.ListExpenses(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	err = repo.DeleteExpense(ctx, a.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	n, err := repo.CountExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHealthCheck(t *testing.T) {
	_, db := newTestRepo(t)
	assert.NoError(t, db.HealthCheck(context.Background(), time.Second))
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), Config{DSN: "mysql://u:secret@h/db"}, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "x.db?_pragma=busy_timeout(5000)&_time_format=sqlite", sqliteDSN("sqlite://x.db"))
	assert.Equal(t, "file:x.db?_time_format=sqlite&_pragma=busy_timeout(1000)", sqliteDSN("file:x.db?_time_format=sqlite&_pragma=busy_timeout(1000)"))
}

func titles(list []*entity.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Title
	}
	return out
}
