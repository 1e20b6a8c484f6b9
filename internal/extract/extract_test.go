package extract

import (
	"strings"
	"testing"

	"talentlens/internal/errors"
)

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name         string
		fileName     string
		data         string
		declaredType string
		expected     string
	}{
		{
			name:         "declared text type",
			fileName:     "resume.txt",
			data:         "Jane Doe, 5 years React...",
			declaredType: "text/plain",
			expected:     "Jane Doe, 5 years React...",
		},
		{
			name:         "inferred from extension",
			fileName:     "resume.txt",
			data:         "Jane Doe",
			declaredType: "",
			expected:     "Jane Doe",
		},
		{
			name:         "surrounding whitespace trimmed",
			fileName:     "resume.txt",
			data:         "\n\n  Jane Doe  \n\n",
			declaredType: "text/plain",
			expected:     "Jane Doe",
		},
		{
			name:         "media type with charset parameter",
			fileName:     "resume.txt",
			data:         "Jane Doe",
			declaredType: "text/plain; charset=utf-8",
			expected:     "Jane Doe",
		},
		{
			name:         "markdown extension treated as text",
			fileName:     "resume.md",
			data:         "# Jane Doe",
			declaredType: "",
			expected:     "# Jane Doe",
		},
	}

	e := New(0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.fileName, []byte(tt.data), tt.declaredType)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Extract() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name         string
		fileName     string
		data         string
		declaredType string
		maxFileSize  int64
		expectedCode string
	}{
		{
			name:         "unsupported declared type",
			fileName:     "resume.docx",
			data:         "content",
			declaredType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			expectedCode: errors.ErrCodeUnsupportedType,
		},
		{
			name:         "unknown extension without declared type",
			fileName:     "resume.png",
			data:         "content",
			expectedCode: errors.ErrCodeUnsupportedType,
		},
		{
			name:         "empty text",
			fileName:     "resume.txt",
			data:         "",
			declaredType: "text/plain",
			expectedCode: errors.ErrCodeEmptyDocument,
		},
		{
			name:         "whitespace-only text",
			fileName:     "resume.txt",
			data:         " \n\t \n",
			declaredType: "text/plain",
			expectedCode: errors.ErrCodeEmptyDocument,
		},
		{
			name:         "corrupt PDF",
			fileName:     "resume.pdf",
			data:         "this is not a pdf",
			declaredType: "application/pdf",
			expectedCode: errors.ErrCodeExtractionFailed,
		},
		{
			name:         "file too large",
			fileName:     "resume.txt",
			data:         "0123456789",
			declaredType: "text/plain",
			maxFileSize:  5,
			expectedCode: errors.ErrCodeFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.maxFileSize, nil)
			_, err := e.Extract(tt.fileName, []byte(tt.data), tt.declaredType)
			if err == nil {
				t.Fatal("Extract() expected error, got nil")
			}
			if code := errors.CodeOf(err); code != tt.expectedCode {
				t.Errorf("Extract() error code = %q, want %q", code, tt.expectedCode)
			}
		})
	}
}

func TestPageSeparator(t *testing.T) {
	sep := PageSeparator(3)
	if !strings.Contains(sep, "--- Page 3 ---") {
		t.Errorf("PageSeparator(3) = %q, want it to contain %q", sep, "--- Page 3 ---")
	}
}
