package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
)

// Degraded reasons.
const (
	ReasonEmptyDocument    = "empty document"
	ReasonTooLarge         = "document too large"
	ReasonLLMNotConfigured = "llm not configured"
	ReasonPanic            = "internal error"
	ReasonAmountOutOfRange = "amount out of range"
)

type Config struct {
	Mode       string // common.ModeOCRLLM, common.ModeOCRRules or common.ModeVision
	MaxBytes   int64
	OCRTimeout time.Duration
	LLMTimeout time.Duration
}

// Pipeline turns an uploaded receipt into a draft expense. It never fails: every
// failure is absorbed into a DEGRADED result.
type Pipeline struct {
	logger *zap.Logger
	cfg    Config
	text   extract.TextExtractor
	fields llm.FieldExtractor
	vision llm.DocumentExtractor
	rules  *llm.RulesExtractor
	now    func() time.Time
}

type Option func(*Pipeline)

// WithVision sets the extractor used in vision mode.
func WithVision(v llm.DocumentExtractor) Option {
	return func(p *Pipeline) { p.vision = v }
}

// WithClock overrides time.Now for default dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline. fields may be nil, in which case the deterministic rules
// structure the recognized text.
func New(logger *zap.Logger, cfg Config, text extract.TextExtractor, fields llm.FieldExtractor, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = common.ModeOCRLLM
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxUploadBytes
	}
	p := &Pipeline{
		logger: logger,
		cfg:    cfg,
		text:   text,
		fields: fields,
		rules:  llm.NewRulesExtractor(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.Mode == common.ModeOCRLLM && p.fields == nil {
		p.cfg.Mode = common.ModeOCRRules
	}
	return p
}

func (p *Pipeline) Mode() string { return p.cfg.Mode }

// Run extracts a draft from doc.
func (p *Pipeline) Run(ctx context.Context, doc extract.Document) (res Result) {
	now := p.now()
	log := common.LoggerFromContext(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline.panic", zap.Any("panic", r), zap.Stack("stack"))
			res = degraded(entity.DegradedDraft(now), ReasonPanic, fmt.Errorf("panic: %v", r), "")
		}
	}()

	log.Info("pipeline.start",
		zap.String("mode", p.cfg.Mode),
		zap.String("media_type", doc.MediaType),
		zap.Int("bytes", len(doc.Data)),
	)

	switch {
	case len(doc.Data) == 0:
		res = degraded(entity.DegradedDraft(now), ReasonEmptyDocument, nil, "")
	case int64(len(doc.Data)) > p.cfg.MaxBytes:
		res = degraded(entity.DegradedDraft(now), ReasonTooLarge, nil, "")
	case p.cfg.Mode == common.ModeVision:
		res = p.runVision(ctx, log, doc, now)
	default:
		res = p.runText(ctx, log, doc, now)
	}

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.String("merchant", res.Draft.Merchant),
		zap.String("amount", res.Draft.Amount.StringFixed(2)),
		zap.String("category", string(res.Draft.Category)),
	}
	if res.Degraded() {
		log.Warn("pipeline.degraded", append(fields, zap.String("reason", res.Reason), zap.Error(res.Err))...)
	} else {
		log.Info("pipeline.ok", fields...)
	}
	return res
}

func (p *Pipeline) runText(ctx context.Context, log *zap.Logger, doc extract.Document, now time.Time) Result {
	if p.text == nil {
		return degraded(entity.DegradedDraft(now), "ocr not configured", nil, "")
	}

	tr, err := p.recognize(ctx, doc)
	if err != nil {
		f := extract.AsOCRFailure(err)
		log.Warn("pipeline.ocr.failed", zap.String("reason", f.Reason), zap.Error(f.Err))
		return degraded(entity.DegradedDraft(now), f.Reason, err, "")
	}
	log.Debug("pipeline.ocr.ok", zap.Int("pages", tr.Pages), zap.Int("text_len", len(tr.Text)))

	req := p.request(tr.Text, doc, now)
	if p.cfg.Mode == common.ModeOCRRules {
		return degraded(p.fallback(ctx, log, req, now), ReasonLLMNotConfigured, nil, tr.Text)
	}

	fields, err := p.structure(ctx, req)
	if err != nil {
		f := extract.AsStructuringFailure(err)
		log.Warn("pipeline.structure.failed", zap.String("reason", f.Reason), zap.Error(f.Err))
		return degraded(p.fallback(ctx, log, req, now), f.Reason, err, tr.Text)
	}
	return p.finish(log, fields, now, tr.Text)
}

// fallback structures the recognized text with the deterministic rules.
func (p *Pipeline) fallback(ctx context.Context, log *zap.Logger, req llm.ExtractRequest, now time.Time) entity.Draft {
	fields, _, err := p.rules.ExtractFields(ctx, req)
	if err != nil {
		log.Warn("pipeline.rules.failed", zap.Error(err))
		return entity.DegradedDraft(now)
	}
	draft, _ := toDraft(fields, now)
	return draft
}

// finish converts structured fields to an OK result unless the amount cannot be stored.
func (p *Pipeline) finish(log *zap.Logger, fields llm.ReceiptFields, now time.Time, text string) Result {
	draft, inRange := toDraft(fields, now)
	if !inRange {
		log.Warn("pipeline.amount.out_of_range", zap.String("amount", fields.Amount.String()))
		return degraded(draft, ReasonAmountOutOfRange, nil, text)
	}
	return ok(draft, text)
}

func (p *Pipeline) runVision(ctx context.Context, log *zap.Logger, doc extract.Document, now time.Time) Result {
	if p.vision == nil {
		return degraded(entity.DegradedDraft(now), ReasonLLMNotConfigured, nil, "")
	}
	fields, err := p.readDocument(ctx, doc, p.request("", doc, now))
	if err != nil {
		f := extract.AsStructuringFailure(err)
		log.Warn("pipeline.vision.failed", zap.String("reason", f.Reason), zap.Error(f.Err))
		return degraded(entity.DegradedDraft(now), f.Reason, err, "")
	}
	return p.finish(log, fields, now, "")
}

func (p *Pipeline) request(text string, doc extract.Document, now time.Time) llm.ExtractRequest {
	return llm.ExtractRequest{
		OCRText:           text,
		FilenameHint:      doc.Filename,
		AllowedCategories: constants.AsStringSlice(),
		Today:             now.Format("2006-01-02"),
	}
}
