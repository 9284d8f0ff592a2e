package constants

import "strings"

// MaxUploadBytes is the largest document accepted for scanning (OCR service free tier limit).
const MaxUploadBytes = 1 << 20

// Document formats accepted for scanning.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

const MediaTypePDF = "application/pdf"

// MapMediaTypeToFormat returns PDF, IMAGE or "" for unsupported media types.
func MapMediaTypeToFormat(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == MediaTypePDF:
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	default:
		return ""
	}
}

// ExtForMediaType returns a file extension (without dot) suitable for the OCR service's
// filetype hint, e.g. "image/jpeg" -> "jpg".
func ExtForMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch mt {
	case MediaTypePDF:
		return "pdf"
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg"
	}
	if _, sub, ok := strings.Cut(mt, "/"); ok && sub != "" {
		if i := strings.IndexAny(sub, "+;"); i >= 0 {
			sub = sub[:i]
		}
		return sub
	}
	return "jpg"
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
