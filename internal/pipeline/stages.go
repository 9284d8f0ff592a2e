package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/utils"
)

// recognize runs Stage 1 under the OCR timeout. Errors are always *extract.OCRFailure.
func (p *Pipeline) recognize(ctx context.Context, doc extract.Document) (extract.TextResult, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.OCRTimeout)
	defer cancel()

	res, err := p.text.ExtractText(ctx, doc)
	if err != nil {
		return res, extract.AsOCRFailure(err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, &extract.OCRFailure{Reason: extract.ReasonNoText}
	}
	return res, nil
}

// structure runs Stage 2 under the structuring timeout. Errors are always *extract.StructuringFailure.
func (p *Pipeline) structure(ctx context.Context, req llm.ExtractRequest) (llm.ReceiptFields, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.LLMTimeout)
	defer cancel()

	f, _, err := p.fields.ExtractFields(ctx, req)
	if err != nil {
		return f, extract.AsStructuringFailure(err)
	}
	return f, nil
}

func (p *Pipeline) readDocument(ctx context.Context, doc extract.Document, req llm.ExtractRequest) (llm.ReceiptFields, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.LLMTimeout)
	defer cancel()

	f, _, err := p.vision.ExtractDocument(ctx, doc, req)
	if err != nil {
		return f, extract.AsStructuringFailure(err)
	}
	return f, nil
}

// toDraft applies the draft invariants: trimmed merchant, amount rounded to cents and within
// [0, constants.MaxAmount], category from the fixed set, date always present. The bool is
// false when the amount was above the storable range and has been zeroed.
func toDraft(f llm.ReceiptFields, now time.Time) (entity.Draft, bool) {
	merchant := strings.TrimSpace(f.Merchant)
	if merchant == "" {
		merchant = constants.UnknownMerchant
	}

	inRange := true
	amount := f.Amount.Round(2)
	switch {
	case amount.IsNegative():
		amount = decimal.Zero
	case amount.GreaterThan(constants.MaxAmount):
		amount = decimal.Zero
		inRange = false
	}

	category, _ := constants.Canonicalize(f.Category)

	date := now
	if f.Date != "" {
		if d, err := utils.ParseYMD(f.Date); err == nil {
			date = d
		}
	}

	return entity.Draft{
		Merchant: merchant,
		Amount:   amount,
		Category: category,
		Date:     &date,
	}, inRange
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
