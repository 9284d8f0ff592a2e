package ocr

import (
	"encoding/json"
	"strings"
)

type parseResponse struct {
	ParsedResults         []parsedResult  `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // string or []string
	ErrorDetails          string          `json:"ErrorDetails"`
}

type parsedResult struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
}

// errorMessage returns the first service-reported message.
func (r parseResponse) errorMessage() string {
	if len(r.ErrorMessage) > 0 {
		var list []string
		if err := json.Unmarshal(r.ErrorMessage, &list); err == nil {
			for _, m := range list {
				if m = strings.TrimSpace(m); m != "" {
					return m
				}
			}
		}
		var s string
		if err := json.Unmarshal(r.ErrorMessage, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, pr := range r.ParsedResults {
		if m := strings.TrimSpace(pr.ErrorMessage); m != "" {
			return m
		}
	}
	return strings.TrimSpace(r.ErrorDetails)
}
