package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

var cats = constants.AsStringSlice()

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, StripCodeFences(in), in)
	}
}

func TestNormalizeFieldsJSON(t *testing.T) {
	raw := []byte(`{"merchant":"  ","amount":"$1,234.50","date":"today","category":"restaurant","currency":"USD"}`)
	out, touched, err := NormalizeFieldsJSON(raw, cats)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Unknown", m["merchant"])
	assert.InDelta(t, 1234.50, m["amount"], 0.0001)
	assert.Equal(t, "Food", m["category"])
	assert.NotContains(t, m, "date")
	assert.NotContains(t, m, "currency")
	assert.Contains(t, touched, "currency(unknown)")
}

func TestNormalizeFieldsJSON_Dates(t *testing.T) {
	out, _, err := NormalizeFieldsJSON([]byte(`{"date":"Mar 5, 2024"}`), cats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-05"}`, string(out))

	out, _, err = NormalizeFieldsJSON([]byte(`{"date":"sometime"}`), cats)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestNormalizeFieldsJSON_UnknownCategory(t *testing.T) {
	out, _, err := NormalizeFieldsJSON([]byte(`{"category":"Gadgets"}`), cats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Other"}`, string(out))
}

func TestParseModelOutput(t *testing.T) {
	t.Run("fenced reply", func(t *testing.T) {
		out, _, err := ParseModelOutput("```json\n{\"merchant\":\"Cafe\",\"date\":\"2024-05-01\",\"amount\":\"4.50\",\"category\":\"Food\"}\n```", cats, nil)
		require.NoError(t, err)
		assert.Equal(t, "Cafe", out.Merchant)
		assert.Equal(t, "2024-05-01", out.Date)
		assert.Equal(t, "4.5", out.Amount.String())
		assert.Equal(t, "Food", out.Category)
	})

	t.Run("missing amount", func(t *testing.T) {
		_, _, err := ParseModelOutput(`{"merchant":"Cafe","category":"Food"}`, cats, nil)
		assert.ErrorContains(t, err, "schema validation failed")
	})

	t.Run("prose", func(t *testing.T) {
		_, _, err := ParseModelOutput("Sure! Here is the data.", cats, nil)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := ParseModelOutput("  ", cats, nil)
		assert.Error(t, err)
	})
}

func TestParseRules(t *testing.T) {
	t.Run("largest two-decimal token wins", func(t *testing.T) {
		out := ParseRules("\n  STARBUCKS  \nLatte 4.50\nTax 0.75\nTOTAL 5.25\n")
		assert.Equal(t, "STARBUCKS", out.Merchant)
		assert.Equal(t, "5.25", out.Amount.StringFixed(2))
		assert.Equal(t, "Other", out.Category)
		assert.Empty(t, out.Date)
	})

	t.Run("thousands separators", func(t *testing.T) {
		out := ParseRules("HOTEL\nRoom 1,234.56\nFee 12.00")
		assert.Equal(t, "1234.56", out.Amount.StringFixed(2))
	})

	t.Run("no money tokens", func(t *testing.T) {
		out := ParseRules("THANK YOU\nTotal 12")
		assert.Equal(t, "THANK YOU", out.Merchant)
		assert.True(t, out.Amount.IsZero())
	})

	t.Run("currency suffix", func(t *testing.T) {
		out := ParseRules("SHOP\nItem 4.50EUR\nTOTAL 12.30USD")
		assert.Equal(t, "12.30", out.Amount.StringFixed(2))
	})

	t.Run("three fraction digits are not money", func(t *testing.T) {
		out := ParseRules("LAB\nWeight 12.345\nPaid 3.10")
		assert.Equal(t, "3.10", out.Amount.StringFixed(2))
	})

	t.Run("empty text", func(t *testing.T) {
		out := ParseRules("   \n ")
		assert.Equal(t, "Unknown", out.Merchant)
		assert.True(t, out.Amount.IsZero())
	})
}

func TestRulesExtractor(t *testing.T) {
	out, raw, err := NewRulesExtractor().ExtractFields(context.Background(), ExtractRequest{OCRText: "STARBUCKS\nTOTAL 12.30"})
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS", out.Merchant)
	assert.Equal(t, "12.30", out.Amount.StringFixed(2))
	assert.JSONEq(t, `{"merchant":"STARBUCKS","amount":"12.3","category":"Other"}`, string(raw))
}

func TestBuildUserPrompt(t *testing.T) {
	req := ExtractRequest{OCRText: "STARBUCKS", FilenameHint: "r.jpg"}
	assert.Contains(t, BuildUserPrompt(req, false), "STARBUCKS")
	assert.NotContains(t, BuildUserPrompt(req, true), "STARBUCKS")
	assert.Contains(t, BuildSystemPrompt(ExtractRequest{AllowedCategories: cats, Today: "2024-01-02"}), "2024-01-02")
}
