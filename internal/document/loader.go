package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when a document has zero extractable pages.
var ErrEmptyDocument = errors.New("document has no pages")

// Document is an ordered sequence of page texts with hard line breaks
// removed. Pages keep their source order; empty pages stay in place as
// empty strings.
type Document struct {
	ID    string
	Path  string
	Pages []string
}

func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Loader extracts page texts from a document on disk.
type Loader interface {
	Load(path string) (*Document, error)
}

type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(path string) (*Document, error) {
	path = strings.TrimSpace(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return nil, fmt.Errorf("unsupported file type %s (expected .pdf)", ext)
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	pages := make([]string, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", num, path, err)
		}
		pages = append(pages, normalize(text))
	}

	return &Document{
		ID:    uuid.New().String(),
		Path:  path,
		Pages: pages,
	}, nil
}

// normalize strips hard line breaks so each page reads as one flat string.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	return strings.ReplaceAll(text, "\n", "")
}
