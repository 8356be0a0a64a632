// Package pdftext extracts plain text from PDF files for ingestion.
//
// Extraction quality is whatever the underlying PDF library yields: page
// order and whitespace artifacts are not controlled here. Downstream
// chunking tolerates both.
package pdftext

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extractor reads plain text and page counts from PDF files.
// It implements ingestion.TextExtractor.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the plain text of the PDF at path and its page count.
func (e *Extractor) ExtractText(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := reader.NumPage()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("extract text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", 0, fmt.Errorf("read text from %s: %w", path, err)
	}

	return buf.String(), pages, nil
}
