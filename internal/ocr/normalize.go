package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reManyBlank  = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, trims trailing whitespace and collapses blank runs.
func Normalize(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reManyBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
