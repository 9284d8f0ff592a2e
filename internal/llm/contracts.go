package llm

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/internal/extract"
)

// ReceiptFields is the normalized shape we want from the model.
type ReceiptFields struct {
	Merchant string          `json:"merchant"`
	Date     string          `json:"date,omitempty"` // YYYY-MM-DD
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"` // one of AllowedCategories
}

type ExtractRequest struct {
	OCRText           string
	FilenameHint      string
	AllowedCategories []string
	Today             string // YYYY-MM-DD, used when the receipt shows no date
}

// FieldExtractor turns recognized text into fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ReceiptFields, []byte /*rawJSON*/, error)
}

// DocumentExtractor reads fields straight from the document image or PDF.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc extract.Document, req ExtractRequest) (ReceiptFields, []byte /*rawJSON*/, error)
}
