//go:build ocr

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// LibOCR renders pages with MuPDF and recognizes them with libtesseract.
type LibOCR struct {
	DPI      float64
	Language string
}

// NewOCR returns the OCR engine for this build.
func NewOCR() OCR {
	return &LibOCR{DPI: 300, Language: "eng"}
}

// Recognize returns the text of every page of the PDF at path.
func (o *LibOCR) Recognize(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer doc.Close() //nolint:errcheck

	client := gosseract.NewClient()
	defer client.Close() //nolint:errcheck
	if err := client.SetLanguage(o.Language); err != nil {
		return "", err
	}

	var texts []string
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		img, err := doc.ImageDPI(n, o.DPI)
		if err != nil {
			return "", fmt.Errorf("rendering page %d: %w", n+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return "", err
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("recognizing page %d: %w", n+1, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}
