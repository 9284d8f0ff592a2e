package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
)

type fakeOCR struct {
	text  string
	err   error
	calls int
	wait  bool
}

func (f *fakeOCR) ExtractText(ctx context.Context, _ extract.Document) (extract.TextResult, error) {
	f.calls++
	if f.wait {
		<-ctx.Done()
		return extract.TextResult{}, ctx.Err()
	}
	return extract.TextResult{Text: f.text, Pages: 1}, f.err
}

type fakeLLM struct {
	out   llm.ReceiptFields
	err   error
	calls int
	req   llm.ExtractRequest
	panic bool
}

func (f *fakeLLM) ExtractFields(_ context.Context, req llm.ExtractRequest) (llm.ReceiptFields, []byte, error) {
	f.calls++
	f.req = req
	if f.panic {
		panic("boom")
	}
	return f.out, nil, f.err
}

type fakeVision struct {
	out llm.ReceiptFields
	err error
	doc extract.Document
}

func (f *fakeVision) ExtractDocument(_ context.Context, doc extract.Document, _ llm.ExtractRequest) (llm.ReceiptFields, []byte, error) {
	f.doc = doc
	return f.out, nil, f.err
}

var (
	fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	jpeg     = extract.Document{Data: []byte{0xff, 0xd8, 0xff, 0xe0}, MediaType: "image/jpeg", Filename: "r.jpg"}
)

func newPipeline(mode string, ocr extract.TextExtractor, f llm.FieldExtractor, opts ...Option) *Pipeline {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(nil, Config{Mode: mode, OCRTimeout: 50 * time.Millisecond, LLMTimeout: time.Second}, ocr, f, opts...)
}

func TestRun_OK(t *testing.T) {
	o := &fakeOCR{text: "Coffee Shop\nTOTAL 4.50"}
	l := &fakeLLM{out: llm.ReceiptFields{Merchant: "  Coffee Shop ", Date: "2024-05-30", Amount: decimal.RequireFromString("4.505"), Category: "restaurant"}}

	res := newPipeline(common.ModeOCRLLM, o, l).Run(context.Background(), jpeg)

	require.False(t, res.Degraded())
	assert.Equal(t, constants.ExtractionOK, res.Status)
	assert.Equal(t, "Coffee Shop", res.Draft.Merchant)
	assert.Equal(t, "4.51", res.Draft.Amount.StringFixed(2))
	assert.Equal(t, constants.Food, res.Draft.Category)
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), *res.Draft.Date)
	assert.Equal(t, "Coffee Shop\nTOTAL 4.50", l.req.OCRText)
	assert.Equal(t, "2024-06-01", l.req.Today)
	assert.Equal(t, "r.jpg", l.req.FilenameHint)
}

func TestRun_DraftInvariants(t *testing.T) {
	l := &fakeLLM{out: llm.ReceiptFields{Merchant: "", Amount: decimal.NewFromInt(-3), Category: "Spaceships", Date: "not a date"}}
	res := newPipeline(common.ModeOCRLLM, &fakeOCR{text: "x"}, l).Run(context.Background(), jpeg)

	assert.False(t, res.Degraded())
	assert.Equal(t, "Unknown", res.Draft.Merchant)
	assert.True(t, res.Draft.Amount.IsZero())
	assert.Equal(t, constants.Other, res.Draft.Category)
	assert.Equal(t, fixedNow, *res.Draft.Date)
	assert.True(t, constants.IsKnown(res.Draft.Category))
}

func TestRun_OCRFailure(t *testing.T) {
	cases := map[string]*fakeOCR{
		"service error": {err: &extract.OCRFailure{Reason: "File failed validation"}},
		"foreign error": {err: errors.New("dial tcp: refused")},
		"blank text":    {text: "   "},
		"timeout":       {wait: true},
	}
	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			l := &fakeLLM{}
			res := newPipeline(common.ModeOCRLLM, o, l).Run(context.Background(), jpeg)

			require.True(t, res.Degraded())
			assert.Equal(t, "Scan Failed", res.Draft.Merchant)
			assert.True(t, res.Draft.Amount.IsZero())
			assert.Equal(t, constants.Other, res.Draft.Category)
			assert.Equal(t, fixedNow, *res.Draft.Date)
			assert.Zero(t, l.calls, "structuring must not run after OCR failure")

			var f *extract.OCRFailure
			if res.Err != nil {
				assert.True(t, errors.As(res.Err, &f))
			}
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestRun_StructuringFailureFallsBackToRules(t *testing.T) {
	o := &fakeOCR{text: "STARBUCKS\nLatte 4.50\nMuffin 3.10\nTOTAL 12.30"}
	l := &fakeLLM{err: errors.New("schema validation failed")}

	res := newPipeline(common.ModeOCRLLM, o, l).Run(context.Background(), jpeg)

	require.True(t, res.Degraded())
	assert.Equal(t, "STARBUCKS", res.Draft.Merchant)
	assert.Equal(t, "12.30", res.Draft.Amount.StringFixed(2))
	assert.Equal(t, constants.Other, res.Draft.Category)
	assert.Equal(t, 1, l.calls)

	var f *extract.StructuringFailure
	assert.True(t, errors.As(res.Err, &f))
}

func TestRun_RulesModeWithoutLLM(t *testing.T) {
	res := newPipeline(common.ModeOCRLLM, &fakeOCR{text: "STARBUCKS\nTOTAL 12.30"}, nil).Run(context.Background(), jpeg)

	require.True(t, res.Degraded())
	assert.Equal(t, ReasonLLMNotConfigured, res.Reason)
	assert.Equal(t, "STARBUCKS", res.Draft.Merchant)
	assert.Equal(t, "12.30", res.Draft.Amount.StringFixed(2))
}

func TestRun_InputGuards(t *testing.T) {
	o := &fakeOCR{text: "x"}
	p := newPipeline(common.ModeOCRLLM, o, &fakeLLM{})

	res := p.Run(context.Background(), extract.Document{MediaType: "image/png"})
	assert.Equal(t, ReasonEmptyDocument, res.Reason)

	big := extract.Document{Data: []byte(strings.Repeat("a", constants.MaxUploadBytes+1)), MediaType: "image/png"}
	res = p.Run(context.Background(), big)
	assert.Equal(t, ReasonTooLarge, res.Reason)
	assert.Equal(t, "Scan Failed", res.Draft.Merchant)
	assert.Zero(t, o.calls)
}

func TestRun_PanicIsRecovered(t *testing.T) {
	res := newPipeline(common.ModeOCRLLM, &fakeOCR{text: "x"}, &fakeLLM{panic: true}).Run(context.Background(), jpeg)
	require.True(t, res.Degraded())
	assert.Equal(t, ReasonPanic, res.Reason)
	assert.Equal(t, "Scan Failed", res.Draft.Merchant)
}

func TestRun_Vision(t *testing.T) {
	v := &fakeVision{out: llm.ReceiptFields{Merchant: "Pharmacy", Amount: decimal.RequireFromString("9.99"), Category: "Medical"}}
	o := &fakeOCR{}
	res := newPipeline(common.ModeVision, o, nil, WithVision(v)).Run(context.Background(), jpeg)

	require.False(t, res.Degraded())
	assert.Equal(t, constants.Medical, res.Draft.Category)
	assert.Equal(t, jpeg.Data, v.doc.Data)
	assert.Zero(t, o.calls)

	v.err = errors.New("bad")
	res = newPipeline(common.ModeVision, o, nil, WithVision(v)).Run(context.Background(), jpeg)
	require.True(t, res.Degraded())
	assert.Equal(t, "Scan Failed", res.Draft.Merchant)
}

func TestRun_AmountAboveStoreRangeDegrades(t *testing.T) {
	o := &fakeOCR{text: "Yacht Broker\nTOTAL 2,500,000.00"}
	l := &fakeLLM{out: llm.ReceiptFields{Merchant: "Yacht Broker", Amount: decimal.RequireFromString("1e15"), Category: "Shopping"}}

	res := newPipeline(common.ModeOCRLLM, o, l).Run(context.Background(), jpeg)

	require.True(t, res.Degraded())
	assert.Equal(t, ReasonAmountOutOfRange, res.Reason)
	assert.Equal(t, "Yacht Broker", res.Draft.Merchant)
	assert.True(t, res.Draft.Amount.IsZero())
	assert.Equal(t, constants.Shopping, res.Draft.Category)

	l.out.Amount = constants.MaxAmount
	res = newPipeline(common.ModeOCRLLM, o, l).Run(context.Background(), jpeg)
	require.False(t, res.Degraded())
	assert.True(t, res.Draft.Amount.Equal(constants.MaxAmount))
}

func TestRun_RulesAmountAboveStoreRangeIsZeroed(t *testing.T) {
	o := &fakeOCR{text: "MEGASTORE\nTOTAL 12345678901234.50"}

	res := newPipeline(common.ModeOCRRules, o, nil).Run(context.Background(), jpeg)

	require.True(t, res.Degraded())
	assert.Equal(t, ReasonLLMNotConfigured, res.Reason)
	assert.Equal(t, "MEGASTORE", res.Draft.Merchant)
	assert.True(t, res.Draft.Amount.IsZero())
}
