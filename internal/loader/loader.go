// Package loader extracts raw text from an uploaded document. Every failure
// is reported as a permanent load error: a file that cannot be parsed now
// will not parse on a retry either.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/pkg/logging"
)

type Loader struct {
	logger *logging.Logger
}

func New() *Loader {
	return &Loader{logger: logging.NewLogger("loader")}
}

// Load reads the document at path and returns its extracted text.
func (l *Loader) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return l.loadPDF(path)
	case ".txt", ".docx", ".rtf", ".odt":
		return l.loadWithCat(path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrLoad, ext)
	}
}

func (l *Loader) loadPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %v", domain.ErrLoad, path, err)
	}

	var b strings.Builder
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := guardedExtract(page)
		if err != nil {
			// A single bad page does not fail the document.
			l.logger.Warn("skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: pdf %s has no extractable text", domain.ErrLoad, path)
	}
	return b.String(), nil
}

func (l *Loader) loadWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("%w: extract %s: %v", domain.ErrLoad, path, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s has no extractable text", domain.ErrLoad, path)
	}
	return text, nil
}

// guardedExtract runs page extraction in its own goroutine; malformed pages
// can hang the parser indefinitely.
func guardedExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timed out")
	}
}
