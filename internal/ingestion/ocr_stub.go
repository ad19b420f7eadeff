//go:build !ocr

package ingestion

import "fmt"

// ocrText needs tesseract. Build with -tags ocr to enable it.
func ocrText(path string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrOCRUnavailable, path)
}
