package scanning

import (
	"fmt"
	"log/slog"
	"strings"
)

// Extractor routes PDFs to a text-layer reader and images to OCR. A PDF
// without a text layer is rasterized and sent to OCR as well.
type Extractor struct {
	pdf        PDFText
	ocr        OCR
	rasterizer func(pdfData []byte) ([]byte, error)
	enhance    bool
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithEnhancement grayscales, sharpens and downsizes images before OCR
func WithEnhancement(enabled bool) ExtractorOption {
	return func(e *Extractor) { e.enhance = enabled }
}

// NewExtractor creates an Extractor. ocr may be nil, in which case images
// cannot be read and scanned PDFs yield empty text.
func NewExtractor(pdf PDFText, ocr OCR, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		pdf:        pdf,
		ocr:        ocr,
		rasterizer: pdfToImage,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText returns the text found in the upload
func (e *Extractor) ExtractText(data []byte, contentType string) (string, error) {
	switch {
	case IsPDF(contentType):
		return e.extractPDF(data)
	case IsImage(contentType):
		return e.extractImage(data, contentType)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	text, err := e.pdf.Text(data)
	if err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}
	if strings.TrimSpace(text) != "" || e.ocr == nil {
		return text, nil
	}

	slog.Info("PDF has no text layer, falling back to OCR", "file_size", len(data))
	pngData, err := e.rasterizer(data)
	if err != nil {
		return "", fmt.Errorf("converting PDF to image: %w", err)
	}
	return e.recognize(pngData)
}

func (e *Extractor) extractImage(data []byte, contentType string) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("no OCR configured for %s", contentType)
	}
	pngData, _, _, err := prepareImageData(data, contentType)
	if err != nil {
		return "", err
	}
	return e.recognize(pngData)
}

func (e *Extractor) recognize(pngData []byte) (string, error) {
	if e.enhance {
		enhanced, err := enhanceForOCR(pngData)
		if err != nil {
			return "", err
		}
		pngData = enhanced
	}

	text, err := e.ocr.Recognize(pngData)
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}

// Close closes the OCR client
func (e *Extractor) Close() error {
	if e.ocr == nil {
		return nil
	}
	return e.ocr.Close()
}
