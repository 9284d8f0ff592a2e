package pipeline

import (
	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

// Result is the outcome of one extraction run. Status is OK when the model structured the
// fields, DEGRADED when a fallback draft was produced. Reason and Err explain a DEGRADED run.
type Result struct {
	Draft  entity.Draft
	Status constants.ExtractionStatus
	Reason string
	Err    error
	Text   string // recognized text, empty in vision mode or when OCR failed
}

func (r Result) Degraded() bool { return r.Status == constants.ExtractionDegraded }

func ok(d entity.Draft, text string) Result {
	return Result{Draft: d, Status: constants.ExtractionOK, Text: text}
}

func degraded(d entity.Draft, reason string, err error, text string) Result {
	return Result{Draft: d, Status: constants.ExtractionDegraded, Reason: reason, Err: err, Text: text}
}
