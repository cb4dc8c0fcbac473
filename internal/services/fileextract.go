package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFPageCounter reads page counts from documents kept in local storage.
type PDFPageCounter struct {
	storagePath string
}

func NewPDFPageCounter(storagePath string) *PDFPageCounter {
	return &PDFPageCounter{storagePath: storagePath}
}

func (c *PDFPageCounter) CountPages(relPath string) (int, error) {
	path := filepath.Join(c.storagePath, relPath)
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return 0, fmt.Errorf("unsupported file type for page counting: %s", ext)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf %s: %w", relPath, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages <= 0 {
		return 0, fmt.Errorf("pdf %s has no pages", relPath)
	}
	return pages, nil
}
