package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat checks a requested output format against the
// configured allow-list. An empty allow-list accepts any format the
// formatter registry knows about.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}
	if slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format %q (supported: %s)",
		format, strings.Join(supportedFormats, ", "))
}

// GetSupportedFormats returns the configured format allow-list, used
// for shell completion of the --format flag.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
