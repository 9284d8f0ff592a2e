package extract

import (
	"errors"
	"fmt"
)

// Reasons reported by the OCR stage.
const (
	ReasonNoText         = "no text recognized"
	ReasonTransportError = "transport error"
)

// OCRFailure is returned by a TextExtractor when no text could be obtained.
type OCRFailure struct {
	Reason string
	Err    error
}

func (e *OCRFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr failure: %s: %v", e.Reason, e.Err)
	}
	return "ocr failure: " + e.Reason
}

func (e *OCRFailure) Unwrap() error { return e.Err }

// StructuringFailure marks text that could not be turned into expense fields.
type StructuringFailure struct {
	Reason string
	Err    error
}

func (e *StructuringFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structuring failure: %s: %v", e.Reason, e.Err)
	}
	return "structuring failure: " + e.Reason
}

func (e *StructuringFailure) Unwrap() error { return e.Err }

// AsOCRFailure returns err as an OCRFailure, wrapping foreign errors as transport errors.
func AsOCRFailure(err error) *OCRFailure {
	var f *OCRFailure
	if errors.As(err, &f) {
		return f
	}
	return &OCRFailure{Reason: ReasonTransportError, Err: err}
}

// AsStructuringFailure returns err as a StructuringFailure, wrapping foreign errors.
func AsStructuringFailure(err error) *StructuringFailure {
	var f *StructuringFailure
	if errors.As(err, &f) {
		return f
	}
	return &StructuringFailure{Reason: "unparsable model output", Err: err}
}
