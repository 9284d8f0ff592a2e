package constants

import (
	"strings"
)

type Category string

const (
	Food     Category = "Food"
	Travel   Category = "Travel"
	Shopping Category = "Shopping"
	Bills    Category = "Bills"
	Medical  Category = "Medical"
	Other    Category = "Other"
)

var allCategories = []Category{
	Food,
	Travel,
	Shopping,
	Bills,
	Medical,
	Other,
}

// synonyms maps labels a model or a user commonly produces onto the fixed set.
var synonyms = map[string]Category{
	"restaurant":  Food,
	"restaurants": Food,
	"meal":        Food,
	"meals":       Food,
	"dining":      Food,
	"coffee":      Food,
	"cafe":        Food,
	"grocery":     Food,
	"groceries":   Food,
	"taxi":        Travel,
	"uber":        Travel,
	"lyft":        Travel,
	"airline":     Travel,
	"flight":      Travel,
	"hotel":       Travel,
	"fuel":        Travel,
	"gas":         Travel,
	"transport":   Travel,
	"pharmacy":    Medical,
	"doctor":      Medical,
	"hospital":    Medical,
	"health":      Medical,
	"electricity": Bills,
	"utilities":   Bills,
	"utility":     Bills,
	"internet":    Bills,
	"phone":       Bills,
	"rent":        Bills,
	"clothing":    Shopping,
	"retail":      Shopping,
	"electronics": Shopping,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// IsKnown reports whether c is one of the fixed extraction categories.
func IsKnown(c Category) bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Canonicalize maps free-form input onto the fixed set. The bool is false when the
// input was not recognized and Other was substituted.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Other, false
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	return Other, false
}
