package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
)

// ExtractDocument implements llm.DocumentExtractor: the receipt is sent to the model
// directly, images as a data URL and PDFs as a file part.
func (c *Client) ExtractDocument(ctx context.Context, doc extract.Document, req llm.ExtractRequest) (llm.ReceiptFields, []byte, error) {
	log := common.LoggerFromContext(ctx, c.log).With(zap.String("llm_req_id", uuid.New().String()))
	log.Info("llm.vision.start",
		zap.String("model", c.cfg.Model),
		zap.String("media_type", doc.MediaType),
		zap.Int("bytes", len(doc.Data)),
	)

	part, err := documentPart(doc)
	if err != nil {
		return llm.ReceiptFields{}, nil, err
	}

	messages := []map[string]any{
		{"role": "system", "content": llm.BuildSystemPrompt(req)},
		{"role": "user", "content": []map[string]any{
			{"type": "text", "text": llm.BuildUserPrompt(req, true) + "\nReturn ONLY JSON that matches the provided schema."},
			part,
		}},
		{"role": "system", "content": "JSON Schema:\n" + mustJSON(llm.BuildReceiptJSONSchema(req.AllowedCategories))},
	}
	return c.complete(ctx, log, messages, req.AllowedCategories)
}

func documentPart(doc extract.Document) (map[string]any, error) {
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	dataURL := "data:" + doc.MediaType + ";base64," + base64.StdEncoding.EncodeToString(doc.Data)

	switch constants.MapMediaTypeToFormat(doc.MediaType) {
	case constants.IMAGE:
		return map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": dataURL, "detail": "high"},
		}, nil
	case constants.PDF:
		filename := doc.Filename
		if filename == "" {
			filename = "receipt.pdf"
		}
		return map[string]any{
			"type": "file",
			"file": map[string]any{"filename": filename, "file_data": dataURL},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported media type for vision: %q", doc.MediaType)
	}
}
