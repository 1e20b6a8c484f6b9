package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"talentlens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ProfileAnalysis", &ProfileTextFormatter{})
	registry.RegisterFormatter("markdown", "ProfileAnalysis", &ProfileMarkdownFormatter{})
	registry.RegisterFormatter("text", "ATSResult", &ATSTextFormatter{})
	registry.RegisterFormatter("markdown", "ATSResult", &ATSMarkdownFormatter{})
	registry.RegisterFormatter("text", "CritiqueOutput", &CritiqueTextFormatter{})
	registry.RegisterFormatter("markdown", "CritiqueOutput", &CritiqueMarkdownFormatter{})
	registry.RegisterFormatter("text", "Transcript", &TranscriptTextFormatter{})
	registry.RegisterFormatter("markdown", "Transcript", &TranscriptMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ProfileAnalysis:
		return "ProfileAnalysis"
	case types.ATSResult:
		return "ATSResult"
	case types.CritiqueOutput:
		return "CritiqueOutput"
	case []types.Message:
		return "Transcript"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ProfileTextFormatter handles text formatting for candidate profiles
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ProfileAnalysis)
	if !ok {
		return "", fmt.Errorf("expected ProfileAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE PROFILE ===\n\n")
	output.WriteString(fmt.Sprintf("Candidate: %s\n\n", result.CandidateName))
	output.WriteString("Summary:\n")
	output.WriteString(result.ExecutiveSummary)
	output.WriteString("\n\n")

	if len(result.TopSkills) > 0 {
		output.WriteString("Top Skills:\n")
		for _, skill := range result.TopSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(result.SuggestedQuestions) > 0 {
		output.WriteString("Suggested Interview Questions:\n")
		for i, question := range result.SuggestedQuestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
		}
		output.WriteString("\n")
	}

	if result.ATSResult != nil {
		ats, err := (&ATSTextFormatter{}).Format(*result.ATSResult)
		if err != nil {
			return "", err
		}
		output.WriteString(ats)
	}

	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return "ProfileAnalysis"
}

// ProfileMarkdownFormatter handles markdown formatting for candidate profiles
type ProfileMarkdownFormatter struct{}

func (pmf *ProfileMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ProfileAnalysis)
	if !ok {
		return "", fmt.Errorf("expected ProfileAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Profile\n\n")
	output.WriteString(fmt.Sprintf("**Candidate:** %s\n\n", result.CandidateName))
	output.WriteString("## Summary\n\n")
	output.WriteString(result.ExecutiveSummary)
	output.WriteString("\n\n")

	if len(result.TopSkills) > 0 {
		output.WriteString("## Top Skills\n\n")
		for _, skill := range result.TopSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(result.SuggestedQuestions) > 0 {
		output.WriteString("## Suggested Interview Questions\n\n")
		for i, question := range result.SuggestedQuestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
		}
		output.WriteString("\n")
	}

	if result.ATSResult != nil {
		ats, err := (&ATSMarkdownFormatter{}).Format(*result.ATSResult)
		if err != nil {
			return "", err
		}
		output.WriteString(ats)
	}

	return output.String(), nil
}

func (pmf *ProfileMarkdownFormatter) SupportedType() string {
	return "ProfileAnalysis"
}

// ATSTextFormatter handles text formatting for ATS scan results
type ATSTextFormatter struct{}

func (atf *ATSTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ATSResult)
	if !ok {
		return "", fmt.Errorf("expected ATSResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS SCAN ===\n")
	output.WriteString(fmt.Sprintf("Score: %d/100\n\n", result.Score))
	output.WriteString("Feedback:\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n\n")

	if len(result.MissingKeywords) > 0 {
		output.WriteString("Missing Keywords:\n")
		for _, keyword := range result.MissingKeywords {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (atf *ATSTextFormatter) SupportedType() string {
	return "ATSResult"
}

// ATSMarkdownFormatter handles markdown formatting for ATS scan results
type ATSMarkdownFormatter struct{}

func (amf *ATSMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ATSResult)
	if !ok {
		return "", fmt.Errorf("expected ATSResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Scan\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", result.Score))
	output.WriteString("## Feedback\n\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n\n")

	if len(result.MissingKeywords) > 0 {
		output.WriteString("## Missing Keywords\n\n")
		for _, keyword := range result.MissingKeywords {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (amf *ATSMarkdownFormatter) SupportedType() string {
	return "ATSResult"
}

// CritiqueTextFormatter handles text formatting for deep critiques
type CritiqueTextFormatter struct{}

func (ctf *CritiqueTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CritiqueOutput)
	if !ok {
		return "", fmt.Errorf("expected CritiqueOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== DEEP CRITIQUE ===\n\n")
	output.WriteString(result.Critique)
	output.WriteString("\n")
	return output.String(), nil
}

func (ctf *CritiqueTextFormatter) SupportedType() string {
	return "CritiqueOutput"
}

// CritiqueMarkdownFormatter handles markdown formatting for deep critiques
type CritiqueMarkdownFormatter struct{}

func (cmf *CritiqueMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CritiqueOutput)
	if !ok {
		return "", fmt.Errorf("expected CritiqueOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Deep Critique\n\n")
	output.WriteString(result.Critique)
	output.WriteString("\n")
	return output.String(), nil
}

func (cmf *CritiqueMarkdownFormatter) SupportedType() string {
	return "CritiqueOutput"
}

// TranscriptTextFormatter handles text formatting for chat transcripts
type TranscriptTextFormatter struct{}

func (ttf *TranscriptTextFormatter) Format(data any) (string, error) {
	transcript, ok := data.([]types.Message)
	if !ok {
		return "", fmt.Errorf("expected []Message, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== TRANSCRIPT ===\n\n")
	for _, msg := range transcript {
		label := "Analyst"
		if msg.Role == types.RoleUser {
			label = "You"
		}
		if msg.Failed {
			label += " (failed)"
		}
		output.WriteString(fmt.Sprintf("[%s] %s\n\n", label, msg.Text))
	}
	return output.String(), nil
}

func (ttf *TranscriptTextFormatter) SupportedType() string {
	return "Transcript"
}

// TranscriptMarkdownFormatter handles markdown formatting for chat transcripts
type TranscriptMarkdownFormatter struct{}

func (tmf *TranscriptMarkdownFormatter) Format(data any) (string, error) {
	transcript, ok := data.([]types.Message)
	if !ok {
		return "", fmt.Errorf("expected []Message, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Transcript\n\n")
	for _, msg := range transcript {
		label := "Analyst"
		if msg.Role == types.RoleUser {
			label = "You"
		}
		if msg.Failed {
			label += " *(failed)*"
		}
		output.WriteString(fmt.Sprintf("**%s:** %s\n\n", label, msg.Text))
	}
	return output.String(), nil
}

func (tmf *TranscriptMarkdownFormatter) SupportedType() string {
	return "Transcript"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
