package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"talentlens/internal/errors"

	"github.com/ledongthuc/pdf"
)

// Media types accepted by the extractor.
const (
	TypePDF  = "application/pdf"
	TypeText = "text/plain"
)

// Extractor converts uploaded resume files into a single text blob.
type Extractor struct {
	maxFileSize int64
	logger      *errors.Logger
}

// New creates an extractor. maxFileSize <= 0 disables the size check.
func New(maxFileSize int64, logger *errors.Logger) *Extractor {
	return &Extractor{maxFileSize: maxFileSize, logger: logger}
}

// Extract converts a resume file into plain text. declaredType may be
// empty, in which case the type is inferred from the file extension.
// Multi-page PDFs are concatenated with a page-boundary marker between
// pages so downstream prompts can reason about page structure. A
// failure is surfaced once, immediately; there are no retries here.
func (e *Extractor) Extract(fileName string, data []byte, declaredType string) (string, error) {
	if e.maxFileSize > 0 && int64(len(data)) > e.maxFileSize {
		return "", errors.NewIOError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s exceeds the maximum size of %d bytes", fileName, e.maxFileSize), nil)
	}

	mediaType := normalizeMediaType(declaredType)
	// Generic upload types carry no real information; fall back to the
	// file extension, as for a missing declared type.
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = inferMediaType(fileName)
	}

	var text string
	var err error
	switch mediaType {
	case TypePDF:
		text, err = extractPDF(data)
	case TypeText, "text/markdown":
		text = string(data)
	default:
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedType,
			fmt.Sprintf("Unsupported file type %q: only PDF and plain text resumes are accepted", mediaType), nil)
	}
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"Failed to extract text from the PDF. Ensure the file is not corrupted or password protected.", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument,
			fmt.Sprintf("No text could be extracted from %s. Image-only scans are not supported.", fileName), nil)
	}

	if e.logger != nil {
		e.logger.Debug("Document extracted",
			"file_name", fileName,
			"media_type", mediaType,
			"text_chars", len(text))
	}
	return text, nil
}

// extractPDF pulls text out of each page and joins pages with a
// human-readable boundary marker.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(PageSeparator(i))
		sb.WriteString(strings.TrimSpace(pageText))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// PageSeparator returns the boundary marker inserted before page n.
func PageSeparator(n int) string {
	return fmt.Sprintf("\n\n--- Page %d ---\n\n", n)
}

// inferMediaType maps a file extension to a supported media type.
// Unknown extensions map to an empty string so Extract rejects them.
func inferMediaType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return TypePDF
	case ".txt", ".text", ".md", ".markdown":
		return TypeText
	default:
		return ""
	}
}

// normalizeMediaType strips parameters like "; charset=utf-8".
func normalizeMediaType(mediaType string) string {
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
