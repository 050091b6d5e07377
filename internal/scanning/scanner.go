package scanning

import (
	"errors"
	"strings"
)

// ErrUnsupportedContentType is returned for uploads that are neither PDF nor image.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// TextExtractor turns an uploaded receipt into best-effort plain text
type TextExtractor interface {
	// ExtractText returns the text found in a PDF or image
	ExtractText(data []byte, contentType string) (string, error)
	// Close releases any resources held by the extractor
	Close() error
}

// OCR recognizes text in a PNG image
type OCR interface {
	// Recognize transcribes the text visible in the image
	Recognize(pngData []byte) (string, error)
	// Close closes the OCR client and releases resources
	Close() error
}

// PDFText reads the embedded text layer of a PDF
type PDFText interface {
	Text(pdfData []byte) (string, error)
}

// IsPDF reports whether the content type denotes a PDF document
func IsPDF(contentType string) bool {
	return normalizeMimeType(contentType) == "application/pdf"
}

// IsImage reports whether the content type denotes an image
func IsImage(contentType string) bool {
	return strings.HasPrefix(normalizeMimeType(contentType), "image/")
}

// IsSupported reports whether ExtractText can handle the content type
func IsSupported(contentType string) bool {
	return IsPDF(contentType) || IsImage(contentType)
}

func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}
