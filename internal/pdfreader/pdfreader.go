// Package pdfreader extracts plain text from PDF documents.
package pdfreader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document opens fine but yields no extractable
// text (scanned images, empty pages).
var ErrNoText = errors.New("pdfreader: document contains no extractable text")

// ExtractText returns the concatenated page text and the page count. The
// returned text is raw layout-reconstructed output and needs normalization
// before chunking. Malformed documents fail with an error.
func ExtractText(r io.ReaderAt, size int64) (string, int, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", pages, ErrNoText
	}
	return text, pages, nil
}

// ExtractFile extracts text from a PDF on disk.
func ExtractFile(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	return ExtractText(f, info.Size())
}
