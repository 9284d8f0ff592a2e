package extract

import (
	"context"
	"time"
)

// Document is an uploaded receipt: raw bytes plus the media type declared or sniffed at upload.
type Document struct {
	Data      []byte
	MediaType string
	Filename  string
}

// TextExtractor is Stage 1: document -> text.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc Document) (TextResult, error)
}

type TextResult struct {
	Text     string
	Pages    int
	Language string
	Duration time.Duration
}
