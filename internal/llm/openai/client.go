package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractFields implements llm.FieldExtractor using text-only chat/completions.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.ReceiptFields, []byte, error) {
	log := common.LoggerFromContext(ctx, c.log).With(zap.String("llm_req_id", uuid.New().String()))
	log.Info("llm.extract.start",
		zap.String("model", c.cfg.Model),
		zap.Float32("temp", c.cfg.Temperature),
		zap.Int("text_len", len(req.OCRText)),
		zap.Int("allowed_categories", len(req.AllowedCategories)),
	)

	messages := []map[string]any{
		{"role": "system", "content": llm.BuildSystemPrompt(req)},
		{"role": "user", "content": llm.BuildUserPrompt(req, false) + "\n\nReturn ONLY JSON that matches the provided schema."},
		{"role": "system", "content": "JSON Schema:\n" + mustJSON(llm.BuildReceiptJSONSchema(req.AllowedCategories))},
	}
	return c.complete(ctx, log, messages, req.AllowedCategories)
}

// complete sends one chat/completions request and runs the shared post-processing chain.
func (c *Client) complete(ctx context.Context, log *zap.Logger, messages []map[string]any, allowed []string) (llm.ReceiptFields, []byte, error) {
	start := time.Now()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages":        messages,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, log)
	if err != nil {
		log.Error("llm.extract.http_error",
			zap.Error(err), zap.Int("status", status),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		if status != 0 {
			return llm.ReceiptFields{}, raw, fmt.Errorf("openai status %d: %s", status, truncate(raw, 256))
		}
		return llm.ReceiptFields{}, nil, fmt.Errorf("openai http error: %w", err)
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		log.Error("llm.extract.decode_error", zap.Error(err), zap.Int("raw_bytes", len(raw)))
		return llm.ReceiptFields{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		log.Error("llm.extract.no_choices", zap.ByteString("raw", truncate(raw, 512)))
		return llm.ReceiptFields{}, raw, fmt.Errorf("no choices in openai response")
	}

	out, cleaned, err := llm.ParseModelOutput(cc.Choices[0].Message.Content, allowed, log)
	if err != nil {
		log.Error("llm.extract.schema_validation_failed",
			zap.Error(err), zap.String("content", cc.Choices[0].Message.Content),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return llm.ReceiptFields{}, cleaned, err
	}

	log.Info("llm.extract.ok",
		zap.String("merchant", out.Merchant),
		zap.String("date", out.Date),
		zap.String("amount", out.Amount.StringFixed(2)),
		zap.String("category", out.Category),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return out, cleaned, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
