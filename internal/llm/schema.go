package llm

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We send it to the model as an output constraint and also use it locally to validate.
func BuildReceiptJSONSchema(allowedCategories []string) map[string]any {
	props := map[string]any{
		"merchant": map[string]any{"type": "string", "minLength": 1},
		"date":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"amount":   map[string]any{"type": "number"},
		"category": map[string]any{"type": "string", "minLength": 1},
	}

	if len(allowedCategories) > 0 {
		props["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	// date stays optional; the pipeline defaults it to today.
	required := []string{"merchant", "amount", "category"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
