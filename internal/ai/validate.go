package ai

import (
	"fmt"
	"strings"

	appErrors "talentlens/internal/errors"
	"talentlens/internal/types"
)

const (
	maxTopSkills        = 5
	maxMissingKeywords  = 3
	maxSuggestedAnswers = 3
)

// validateProfile enforces the structural contract on a parsed profile.
// Overlong lists are truncated; empty required fields fail the call.
func validateProfile(p *types.ProfileAnalysis) error {
	if strings.TrimSpace(p.CandidateName) == "" {
		return appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Profile extraction returned an empty candidate name", nil)
	}
	if strings.TrimSpace(p.ExecutiveSummary) == "" {
		return appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Profile extraction returned an empty executive summary", nil)
	}
	if len(p.TopSkills) == 0 {
		return appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Profile extraction returned no skills", nil)
	}
	if len(p.TopSkills) > maxTopSkills {
		p.TopSkills = p.TopSkills[:maxTopSkills]
	}
	if len(p.SuggestedQuestions) > maxSuggestedAnswers {
		p.SuggestedQuestions = p.SuggestedQuestions[:maxSuggestedAnswers]
	}
	return nil
}

// validateATSResult enforces the structural contract on a parsed ATS
// scan. A score outside 0-100 means the model ignored the schema, so
// the whole call is treated as failed rather than silently clamped.
func validateATSResult(r *types.ATSResult) error {
	if r.Score < 0 || r.Score > 100 {
		return appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			fmt.Sprintf("ATS scan returned an out-of-range score: %d", r.Score), nil)
	}
	if strings.TrimSpace(r.Feedback) == "" {
		return appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"ATS scan returned empty feedback", nil)
	}
	if r.MissingKeywords == nil {
		r.MissingKeywords = []string{}
	}
	if len(r.MissingKeywords) > maxMissingKeywords {
		r.MissingKeywords = r.MissingKeywords[:maxMissingKeywords]
	}
	return nil
}
