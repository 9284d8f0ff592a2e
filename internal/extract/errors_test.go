package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsOCRFailure(t *testing.T) {
	orig := &OCRFailure{Reason: "E301: bad image"}
	wrapped := fmt.Errorf("stage: %w", orig)
	assert.Same(t, orig, AsOCRFailure(wrapped))

	f := AsOCRFailure(context.DeadlineExceeded)
	assert.Equal(t, ReasonTransportError, f.Reason)
	assert.True(t, errors.Is(f, context.DeadlineExceeded))
}

func TestAsStructuringFailure(t *testing.T) {
	f := AsStructuringFailure(errors.New("unexpected end of JSON input"))
	assert.Equal(t, "unparsable model output", f.Reason)
	assert.Contains(t, f.Error(), "unexpected end of JSON input")
}
