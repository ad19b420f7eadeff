package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("ingestion: unsupported file type")
	ErrOCRUnavailable  = errors.New("ingestion: OCR support not built in")
)

// Method names the route that produced a file's text.
type Method string

const (
	MethodPlain     Method = "plain"
	MethodTextLayer Method = "pdf_text_layer"
	MethodPDFToText Method = "pdftotext"
	MethodOCR       Method = "ocr"
)

type Extraction struct {
	Text   string
	Method Method
}

// extractors is keyed by lower-cased extension. It is also the list of
// file types the loaders accept.
var extractors = map[string]func(path string) (Extraction, error){
	".txt":  readPlain,
	".md":   readPlain,
	".pdf":  extractPDF,
	".png":  extractImage,
	".jpg":  extractImage,
	".jpeg": extractImage,
}

// Extract returns the text of a bulletin along with the method that found it.
func Extract(path string) (Extraction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := extractors[ext]
	if !ok {
		return Extraction{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return fn(path)
}

func readPlain(path string) (Extraction, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: string(b), Method: MethodPlain}, nil
}

func extractImage(path string) (Extraction, error) {
	text, err := ocrText(path)
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: text, Method: MethodOCR}, nil
}
