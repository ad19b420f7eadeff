package ingestion

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// extractPDF tries the embedded text layer first, then the pdftotext CLI,
// and rasterises the pages for OCR when neither finds any text.
func extractPDF(path string) (Extraction, error) {
	text, layerErr := pdfTextLayer(path)
	if text != "" {
		return Extraction{Text: text, Method: MethodTextLayer}, nil
	}
	if text := pdftotext(path); text != "" {
		return Extraction{Text: text, Method: MethodPDFToText}, nil
	}
	text, err := ocrText(path)
	if err != nil {
		return Extraction{}, errors.Join(layerErr, err)
	}
	return Extraction{Text: text, Method: MethodOCR}, nil
}

func pdfTextLayer(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// pdftotext returns "" when poppler is missing or the file is unreadable.
func pdftotext(path string) string {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
