package extractor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unioffice/document"

	"github.com/futig/docqa-backend/internal/entity"
)

// Extractor pulls plain text out of uploaded document files.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text content of the file at path. fileType is
// the lowercase extension without the dot (txt, md, pdf, docx).
func (e *Extractor) Extract(path, fileType string) (string, error) {
	switch fileType {
	case "txt", "md":
		return extractPlain(path)
	case "pdf":
		return extractPDF(path)
	case "docx":
		return extractDOCX(path)
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedFileType, fileType)
	}
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}

func extractDOCX(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
