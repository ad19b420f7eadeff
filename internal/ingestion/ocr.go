//go:build ocr

package ingestion

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ocrText runs tesseract on an image, or on every page of a scanned PDF
// after rasterising it with pdftoppm. One client serves all pages.
func ocrText(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return recognise(client, path)
	}

	dir, err := os.MkdirTemp("", "bulletin-ocr-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if err := exec.Command("pdftoppm", "-png", path, prefix).Run(); err != nil {
		return "", fmt.Errorf("pdftoppm convert failed: %w", err)
	}
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", err
	}
	sort.Strings(pages)

	var (
		texts  []string
		failed int
	)
	for _, p := range pages {
		text, err := recognise(client, p)
		if err != nil {
			failed++
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	if failed > 0 && len(texts) == 0 {
		return "", fmt.Errorf("ocr failed on all %d pages of %s", failed, filepath.Base(path))
	}
	return strings.Join(texts, "\n\n"), nil
}

func recognise(client *gosseract.Client, img string) (string, error) {
	if err := client.SetImage(img); err != nil {
		return "", err
	}
	text, err := client.Text()
	return strings.TrimSpace(text), err
}
