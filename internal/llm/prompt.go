package llm

import (
	"strings"
)

const maxPromptText = 3000

// BuildSystemPrompt composes the directive shared by the text and vision paths.
func BuildSystemPrompt(req ExtractRequest) string {
	var catLine string
	if len(req.AllowedCategories) > 0 {
		catLine = "'category' MUST be exactly one of: " + strings.Join(req.AllowedCategories, ", ") + ". If uncertain, choose 'Other'."
	} else {
		catLine = "'category' is a short label; if uncertain, use 'Other'."
	}

	today := strings.TrimSpace(req.Today)
	dateLine := "'date' is the transaction date as YYYY-MM-DD."
	if today != "" {
		dateLine += " If no date can be determined, use " + today + "."
	}

	parts := []string{
		"You are a receipt parser. Return ONLY a JSON object that matches the provided JSON Schema.",
		"No prose, no explanations, no markdown code fences.",
		"'merchant' is the store or business name; use 'Unknown' if it cannot be determined.",
		dateLine,
		"'amount' is the final total paid as a plain number (no currency symbol); take it from the total line, or the largest money amount if no total is labelled.",
		catLine,
		"Category guide: restaurants, cafes and groceries are Food; transport, fuel and lodging are Travel; retail goods are Shopping; utilities, phone and rent are Bills; pharmacy and clinics are Medical.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and, for text runs, the recognized text.
// When the document itself is attached the text is left out.
func BuildUserPrompt(req ExtractRequest, documentAttached bool) string {
	var b strings.Builder
	if filename := strings.TrimSpace(req.FilenameHint); filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}

	if !documentAttached {
		text := strings.TrimSpace(req.OCRText)
		b.WriteString("\nReceipt text:\n")
		if len(text) > maxPromptText {
			b.WriteString(text[:maxPromptText])
			b.WriteString("\n…(truncated)")
		} else {
			b.WriteString(text)
		}
	} else {
		b.WriteString("\nThe receipt is attached. Read it and extract the fields.\n")
	}
	return b.String()
}
