package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// Expense represents an expense for data transfer between layers.
type Expense struct {
	ID            uuid.UUID       `json:"_id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	Description   *string         `json:"description,omitempty"`
	IsAIProcessed bool            `json:"isAIProcessed"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Draft is an unsaved extraction result. It never reaches the store directly.
type Draft struct {
	Merchant string             `json:"merchant"`
	Amount   decimal.Decimal    `json:"amount"`
	Category constants.Category `json:"category"`
	Date     *time.Time         `json:"date,omitempty"`
}

// ToExpense converts a draft into an expense ready for insertion. A missing date becomes now.
func (d Draft) ToExpense(now time.Time) *Expense {
	date := now
	if d.Date != nil && !d.Date.IsZero() {
		date = *d.Date
	}
	category := string(d.Category)
	if category == "" {
		category = string(constants.Other)
	}
	title := d.Merchant
	if title == "" {
		title = constants.UnknownMerchant
	}
	amount := d.Amount
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return &Expense{
		Title:         title,
		Amount:        amount,
		Category:      category,
		Date:          date,
		IsAIProcessed: true,
	}
}

// DegradedDraft is the fixed-shape draft returned when extraction cannot produce fields.
func DegradedDraft(now time.Time) Draft {
	today := now
	return Draft{
		Merchant: constants.ScanFailedMerchant,
		Amount:   decimal.Zero,
		Category: constants.Other,
		Date:     &today,
	}
}
