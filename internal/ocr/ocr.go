package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
)

type Config struct {
	APIKey   string
	Endpoint string // default https://api.ocr.space/parse/image
	Language string // default "eng"
	Engine   int    // OCREngine, default 2

	DetectOrientation bool
	Scale             bool // upscale low-resolution images
	IsTable           bool // keep line order for receipt-like layouts

	Timeout time.Duration // default 30s
}

// Client implements extract.TextExtractor against the OCR.space parse API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.ocr.space/parse/image"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Engine <= 0 {
		cfg.Engine = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// ExtractText uploads the document and returns the recognized text. Every failure is an
// *extract.OCRFailure.
func (c *Client) ExtractText(ctx context.Context, doc extract.Document) (extract.TextResult, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := common.LoggerFromContext(ctx, c.logger)

	log.Info("ocr.extract.start",
		zap.String("ocr_req_id", rid),
		zap.String("media_type", doc.MediaType),
		zap.Int("bytes", len(doc.Data)),
		zap.String("language", c.cfg.Language),
		zap.Int("engine", c.cfg.Engine),
	)

	body, contentType, err := c.buildForm(doc)
	if err != nil {
		return extract.TextResult{}, &extract.OCRFailure{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return extract.TextResult{}, &extract.OCRFailure{Reason: extract.ReasonTransportError, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("ocr.extract.http_error",
			zap.String("ocr_req_id", rid), zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return extract.TextResult{}, &extract.OCRFailure{Reason: extract.ReasonTransportError, Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn("ocr response body close error", zap.Error(err))
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return extract.TextResult{}, &extract.OCRFailure{Reason: extract.ReasonTransportError, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("ocr.extract.bad_status",
			zap.String("ocr_req_id", rid), zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)),
		)
		return extract.TextResult{}, &extract.OCRFailure{Reason: fmt.Sprintf("ocr service status %d", resp.StatusCode)}
	}

	var parsed parseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Error("ocr.extract.decode_error", zap.String("ocr_req_id", rid), zap.Error(err))
		return extract.TextResult{}, &extract.OCRFailure{Reason: extract.ReasonTransportError, Err: fmt.Errorf("decode ocr response: %w", err)}
	}

	if parsed.IsErroredOnProcessing {
		msg := parsed.errorMessage()
		if msg == "" {
			msg = "ocr processing failed"
		}
		log.Warn("ocr.extract.service_error", zap.String("ocr_req_id", rid), zap.String("message", msg))
		return extract.TextResult{}, &extract.OCRFailure{Reason: msg}
	}

	var pages []string
	for _, pr := range parsed.ParsedResults {
		if t := strings.TrimSpace(pr.ParsedText); t != "" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		log.Warn("ocr.extract.no_text", zap.String("ocr_req_id", rid), zap.Int("results", len(parsed.ParsedResults)))
		return extract.TextResult{}, &extract.OCRFailure{Reason: extract.ReasonNoText}
	}

	text := Normalize(strings.Join(pages, "\n"))
	res := extract.TextResult{
		Text:     text,
		Pages:    len(parsed.ParsedResults),
		Language: c.cfg.Language,
		Duration: time.Since(start),
	}
	log.Info("ocr.extract.ok",
		zap.String("ocr_req_id", rid),
		zap.Int("pages", res.Pages),
		zap.Int("text_len", len(text)),
		zap.Int64("elapsed_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

func (c *Client) buildForm(doc extract.Document) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	fields := []struct{ k, v string }{
		{"apikey", c.cfg.APIKey},
		{"language", c.cfg.Language},
		{"OCREngine", strconv.Itoa(c.cfg.Engine)},
		{"detectOrientation", strconv.FormatBool(c.cfg.DetectOrientation)},
		{"scale", strconv.FormatBool(c.cfg.Scale)},
		{"isTable", strconv.FormatBool(c.cfg.IsTable)},
		{"filetype", strings.ToUpper(constants.ExtForMediaType(doc.MediaType))},
	}
	for _, f := range fields {
		if err := w.WriteField(f.k, f.v); err != nil {
			return nil, "", err
		}
	}

	ext := constants.ExtForMediaType(doc.MediaType)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="scan.%s"`, ext))
	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
