package scanning

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// FitzPDF reads PDF text with MuPDF
type FitzPDF struct{}

// Text concatenates the text of every page
func (FitzPDF) Text(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", n, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// NativePDF reads PDF text with a pure Go parser, for builds without MuPDF
type NativePDF struct{}

// Text returns the plain text of the document, row by row
func (NativePDF) Text(pdfData []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var sb strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", n, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
				sb.WriteString(" ")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// NewPDFText returns the reader for the named engine: "fitz" or "native"
func NewPDFText(engine string) (PDFText, error) {
	switch engine {
	case "", "fitz":
		return FitzPDF{}, nil
	case "native":
		return NativePDF{}, nil
	default:
		return nil, fmt.Errorf("unknown PDF engine %q", engine)
	}
}
