package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

var (
	reFence     = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```$")
	reMoneyText = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	reYMD       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"02.01.2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		time.RFC3339,
	}
)

// StripCodeFences removes a surrounding markdown fence such as ```json ... ```.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// NormalizeFieldsJSON repairs common model slips so the document can validate:
//   - amount given as a string ("$1,234.50", "12 EUR") is coerced to a number
//   - "today", empty or null dates are dropped; other recognizable dates become YYYY-MM-DD
//   - empty merchant becomes "Unknown"
//   - category synonyms map onto the fixed set
//   - unknown keys are removed
//
// It returns the rewritten document and the list of touched keys.
func NormalizeFieldsJSON(raw []byte, allowedCategories []string) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	touched := make([]string, 0, 4)

	switch t := m["amount"].(type) {
	case float64:
	case string:
		if n, ok := moneyFromText(t); ok {
			m["amount"] = n
			touched = append(touched, "amount(coerced)")
		} else {
			delete(m, "amount")
			touched = append(touched, "amount(unparsable)")
		}
	case nil:
		if _, ok := m["amount"]; ok {
			delete(m, "amount")
			touched = append(touched, "amount(null)")
		}
	default:
		delete(m, "amount")
		touched = append(touched, "amount(type)")
	}

	if v, ok := m["date"]; ok {
		s, _ := v.(string)
		s = strings.TrimSpace(s)
		switch {
		case s == "" || strings.EqualFold(s, "today") || strings.EqualFold(s, "null"):
			delete(m, "date")
			touched = append(touched, "date(dropped)")
		case reYMD.MatchString(s):
			m["date"] = s
		default:
			if d, ok := parseLooseDate(s); ok {
				m["date"] = d
				touched = append(touched, "date(reformatted)")
			} else {
				delete(m, "date")
				touched = append(touched, "date(unparsable)")
			}
		}
	}

	if v, ok := m["merchant"]; ok {
		s, _ := v.(string)
		if s = strings.TrimSpace(s); s == "" {
			m["merchant"] = constants.UnknownMerchant
			touched = append(touched, "merchant(empty)")
		} else {
			m["merchant"] = s
		}
	}

	if v, ok := m["category"].(string); ok {
		c, _ := constants.Canonicalize(v)
		if len(allowedCategories) > 0 && !contains(allowedCategories, string(c)) {
			c = constants.Other
		}
		if string(c) != v {
			touched = append(touched, "category(canonicalized)")
		}
		m["category"] = string(c)
	}

	allowed := map[string]struct{}{"merchant": {}, "date": {}, "amount": {}, "category": {}}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			touched = append(touched, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, touched, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, touched, nil
}

// ParseModelOutput runs the full post-processing chain on a model reply:
// fence strip, lenient normalization, schema validation, unmarshal.
func ParseModelOutput(content string, allowedCategories []string, logger *zap.Logger) (ReceiptFields, []byte, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	body := StripCodeFences(content)
	if body == "" {
		return ReceiptFields{}, nil, fmt.Errorf("empty model output")
	}

	cleaned, touched, err := NormalizeFieldsJSON([]byte(body), allowedCategories)
	if err != nil {
		return ReceiptFields{}, []byte(body), err
	}
	if len(touched) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", zap.Strings("touched", touched))
	}

	if err := ValidateReceiptJSON(allowedCategories, cleaned); err != nil {
		return ReceiptFields{}, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var out ReceiptFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return ReceiptFields{}, cleaned, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, cleaned, nil
}

func moneyFromText(s string) (json.Number, bool) {
	tok := reMoneyText.FindString(s)
	if tok == "" {
		return "", false
	}
	tok = strings.ReplaceAll(tok, ",", "")
	if _, err := json.Number(tok).Float64(); err != nil {
		return "", false
	}
	return json.Number(tok), true
}

func parseLooseDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
