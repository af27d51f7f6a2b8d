//go:build !ocr

package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/mailreader/internal/proc"
)

// CLIOCR renders pages with pdftoppm and recognizes them with tesseract.
type CLIOCR struct {
	DPI      int
	Language string
}

// NewOCR returns the OCR engine for this build.
func NewOCR() OCR {
	return &CLIOCR{DPI: 300, Language: "eng"}
}

// Available reports whether both tools are installed.
func (o *CLIOCR) Available() error {
	for _, bin := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s: %w", bin, err)
		}
	}
	return nil
}

// Recognize returns the text of every page of the PDF at path.
func (o *CLIOCR) Recognize(ctx context.Context, path string) (string, error) {
	if err := o.Available(); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp("", "mailreader-ocr-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if _, err := proc.Run(ctx, proc.Command{
		Name:    "pdftoppm",
		Args:    []string{"-r", fmt.Sprint(o.DPI), "-png", path, filepath.Join(dir, "page")},
		Timeout: 5 * time.Minute,
	}); err != nil {
		return "", fmt.Errorf("rendering pages: %w", err)
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return "", err
	}
	sort.Slice(pages, func(i, j int) bool { return pageNumber(pages[i]) < pageNumber(pages[j]) })

	var texts []string
	for _, page := range pages {
		out, err := proc.Output(ctx, proc.Command{
			Name:    "tesseract",
			Args:    []string{page, "stdout", "-l", o.Language},
			Timeout: 2 * time.Minute,
		})
		if err != nil {
			return "", fmt.Errorf("recognizing %s: %w", filepath.Base(page), err)
		}
		if out != "" {
			texts = append(texts, out)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}
