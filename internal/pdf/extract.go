// Package pdf extracts readable text from PDF files, falling back to OCR
// for scanned documents.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrNotPDF indicates the path does not name a PDF file.
	ErrNotPDF = errors.New("not a PDF file")

	// ErrNoText indicates neither the text layer nor OCR produced text.
	ErrNoText = errors.New("PDF does not contain readable text or images")
)

// OCR recognizes the text of rendered PDF pages.
type OCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Extractor pulls text out of PDFs.
type Extractor struct {
	// OCR is used when the text layer is blank. Nil disables the fallback.
	OCR OCR
}

// NewExtractor returns an Extractor using the default OCR engine.
func NewExtractor() *Extractor {
	return &Extractor{OCR: NewOCR()}
}

// Validate checks that path exists and has a .pdf extension.
func Validate(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}
	return nil
}

// Extract returns the text of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}

	text, err := TextLayer(path)
	if err != nil {
		log.Warn("Reading PDF text layer failed", "path", path, "error", err)
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	if e.OCR == nil {
		return "", ErrNoText
	}
	log.Info("No text layer, running OCR", "path", path)
	text, err = e.OCR.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// TextLayer returns the embedded text of every page, separated by blank
// lines.
func TextLayer(path string) (text string, err error) {
	defer func() {
		// the parser panics on some malformed files
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		s, err := p.GetPlainText(fonts)
		if err != nil {
			log.Debug("Skipping unreadable page", "page", i, "error", err)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(s)
		}
	}
	return b.String(), nil
}
