package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	standard := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
	}{
		{"valid json", "json", standard, false},
		{"valid text", "text", standard, false},
		{"valid markdown", "markdown", standard, false},
		{"unsupported xml", "xml", standard, true},
		{"unsupported yaml", "yaml", standard, true},
		{"case sensitive", "JSON", standard, true},
		{"empty format", "", standard, true},
		{"no restrictions allows anything", "xml", nil, false},
		{"single format valid", "json", []string{"json"}, false},
		{"single format invalid", "text", []string{"json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := []string{"json", "text"}
	result := GetSupportedFormats(formats)
	if len(result) != 2 || result[0] != "json" || result[1] != "text" {
		t.Errorf("GetSupportedFormats() = %v, want %v", result, formats)
	}
}
