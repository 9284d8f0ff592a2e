package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

// expenseResponse is the wire shape the web client reads; amount is a JSON number.
type expenseResponse struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	Description   *string   `json:"description,omitempty"`
	IsAIProcessed bool      `json:"isAIProcessed"`
	CreatedAt     time.Time `json:"createdAt"`
}

type createExpenseRequest struct {
	Title       string           `json:"title" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Category    string           `json:"category"`
	Date        string           `json:"date"`
	Description *string          `json:"description"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toExpenseResponse(e *entity.Expense) expenseResponse {
	amount, _ := e.Amount.Round(2).Float64()
	return expenseResponse{
		ID:            e.ID.String(),
		Title:         e.Title,
		Amount:        amount,
		Category:      e.Category,
		Date:          e.Date.UTC(),
		Description:   e.Description,
		IsAIProcessed: e.IsAIProcessed,
		CreatedAt:     e.CreatedAt.UTC(),
	}
}

func toExpenseResponses(list []*entity.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseResponse(e))
	}
	return out
}
