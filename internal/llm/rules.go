package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// Money tokens with exactly two fraction digits; thousands separators tolerated. A currency
// suffix may follow directly ("12.30USD"), another digit may not ("12.345").
var reMoneyToken = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})(?:\D|$)`)

// RulesExtractor is the deterministic fallback: first line is the merchant, largest
// money token is the amount, category is always Other and no date is produced.
type RulesExtractor struct{}

func NewRulesExtractor() *RulesExtractor { return &RulesExtractor{} }

func (RulesExtractor) ExtractFields(_ context.Context, req ExtractRequest) (ReceiptFields, []byte, error) {
	out := ParseRules(req.OCRText)
	raw, err := json.Marshal(out)
	if err != nil {
		return out, nil, err
	}
	return out, raw, nil
}

// ParseRules applies the heuristics to text. It never fails.
func ParseRules(text string) ReceiptFields {
	out := ReceiptFields{
		Merchant: constants.UnknownMerchant,
		Amount:   decimal.Zero,
		Category: string(constants.Other),
	}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 0 {
		out.Merchant = lines[0]
	}

	for _, m := range reMoneyToken.FindAllStringSubmatch(text, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if d.GreaterThan(out.Amount) {
			out.Amount = d
		}
	}
	return out
}
