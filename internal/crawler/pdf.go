package crawler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads plain text from a PDF document already buffered in
// memory. Title extraction has no reliable source for arbitrary PDFs, so it
// is left empty.
func extractPDF(r io.ReaderAt, size int64) (text, title string, err error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", "", fmt.Errorf("opening pdf: %w", err)
	}

	reader, err := doc.GetPlainText()
	if err != nil {
		return "", "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", "", fmt.Errorf("reading pdf text: %w", err)
	}

	return buf.String(), "", nil
}
