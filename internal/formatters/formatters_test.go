package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"talentlens/internal/types"
)

func sampleProfile() types.ProfileAnalysis {
	return types.ProfileAnalysis{
		CandidateName:      "Jane Smith",
		ExecutiveSummary:   "Platform engineer with a decade of distributed systems work.",
		TopSkills:          []string{"Go", "Kubernetes", "PostgreSQL"},
		SuggestedQuestions: []string{"Q1", "Q2", "Q3"},
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleProfile(), "json")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}

	var decoded types.ProfileAnalysis
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.CandidateName != "Jane Smith" {
		t.Errorf("decoded name = %q, want Jane Smith", decoded.CandidateName)
	}
}

func TestProfileFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	profile := sampleProfile()
	profile.ATSResult = &types.ATSResult{Score: 64, Feedback: "Thin on metrics.", MissingKeywords: []string{"Terraform"}}

	for _, format := range []string{"text", "markdown"} {
		t.Run(format, func(t *testing.T) {
			out, err := registry.Format(profile, format)
			if err != nil {
				t.Fatalf("Format(%s) error: %v", format, err)
			}
			for _, want := range []string{"Jane Smith", "Go", "64/100", "Terraform"} {
				if !strings.Contains(out, want) {
					t.Errorf("%s output missing %q", format, want)
				}
			}
		})
	}
}

func TestATSFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	result := types.ATSResult{Score: 48, Feedback: "Dense formatting hurts parsing.", MissingKeywords: []string{"CI/CD", "SQL"}}

	for _, format := range []string{"text", "markdown", "json"} {
		out, err := registry.Format(result, format)
		if err != nil {
			t.Fatalf("Format(%s) error: %v", format, err)
		}
		if !strings.Contains(out, "48") {
			t.Errorf("%s output missing the score", format)
		}
	}
}

func TestTranscriptFormatterMarksFailedTurns(t *testing.T) {
	registry := NewFormatterRegistry()
	transcript := []types.Message{
		{ID: "1", Role: types.RoleModel, Text: "Hello!"},
		{ID: "2", Role: types.RoleUser, Text: "Lost question", Failed: true},
	}

	out, err := registry.Format(transcript, "text")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(out, "(failed)") {
		t.Error("failed turn not marked in transcript output")
	}
	if !strings.Contains(out, "Analyst") || !strings.Contains(out, "You") {
		t.Error("transcript roles not labeled")
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(sampleProfile(), "yaml"); err == nil {
		t.Error("Format() with unknown format should fail")
	}
}
