package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"talentlens/internal/config"
	"talentlens/internal/types"

	appErrors "talentlens/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake network error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"network timeout", &fakeNetError{timeout: true}, true},
		{"network non-timeout", &fakeNetError{timeout: false}, true},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"internal server error", &googleapi.Error{Code: http.StatusInternalServerError}, true},
		{"bad gateway", &googleapi.Error{Code: http.StatusBadGateway}, true},
		{"service unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"gateway timeout", &googleapi.Error{Code: http.StatusGatewayTimeout}, true},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"wrapped rate limit", fmt.Errorf("call failed: %w", &googleapi.Error{Code: http.StatusTooManyRequests}), true},
		{"plain error", errors.New("something broke"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		name        string
		fromFile    string
		fromConfig  string
		fromDefault string
		want        string
	}{
		{"file wins over everything", "file prompt", "config prompt", "default prompt", "file prompt"},
		{"config wins without file", "", "config prompt", "default prompt", "config prompt"},
		{"default as last resort", "", "", "default prompt", "default prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolvePrompt(tt.fromFile, tt.fromConfig, tt.fromDefault); got != tt.want {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultPromptsFormatCleanly(t *testing.T) {
	resume := "John Doe\nSenior Gopher"

	chat := fmt.Sprintf(DefaultSystemPrompts.Chat, resume)
	if !strings.Contains(chat, resume) {
		t.Error("chat system instruction should embed the resume text")
	}
	if strings.Contains(chat, "%!") {
		t.Errorf("chat system instruction has a formatting artifact: %q", chat)
	}

	for name, tpl := range map[string]string{
		"profile":  DefaultUserPrompts.Profile,
		"ats":      DefaultUserPrompts.ATS,
		"critique": DefaultUserPrompts.Critique,
	} {
		got := fmt.Sprintf(tpl, resume)
		if !strings.Contains(got, resume) {
			t.Errorf("%s prompt should embed the resume text", name)
		}
		if strings.Contains(got, "%!") {
			t.Errorf("%s prompt has a formatting artifact: %q", name, got)
		}
	}

	// The rubric percentages must survive formatting
	ats := fmt.Sprintf(DefaultUserPrompts.ATS, resume)
	for _, want := range []string{"40%", "30%"} {
		if !strings.Contains(ats, want) {
			t.Errorf("ATS prompt should contain %q after formatting", want)
		}
	}
}

func TestValidateProfile(t *testing.T) {
	valid := func() types.ProfileAnalysis {
		return types.ProfileAnalysis{
			CandidateName:      "Jane Smith",
			ExecutiveSummary:   "Experienced platform engineer.",
			TopSkills:          []string{"Go", "Kubernetes"},
			SuggestedQuestions: []string{"Q1", "Q2", "Q3"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*types.ProfileAnalysis)
		wantCode string
	}{
		{"valid profile", func(p *types.ProfileAnalysis) {}, ""},
		{"empty name", func(p *types.ProfileAnalysis) { p.CandidateName = "  " }, appErrors.ErrCodeAIResponseInvalid},
		{"empty summary", func(p *types.ProfileAnalysis) { p.ExecutiveSummary = "" }, appErrors.ErrCodeAIResponseInvalid},
		{"no skills", func(p *types.ProfileAnalysis) { p.TopSkills = nil }, appErrors.ErrCodeAIResponseInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := validateProfile(&p)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("validateProfile() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("validateProfile() expected error, got nil")
			}
			if got := appErrors.CodeOf(err); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestValidateProfileTruncatesLists(t *testing.T) {
	p := types.ProfileAnalysis{
		CandidateName:      "Jane Smith",
		ExecutiveSummary:   "Summary.",
		TopSkills:          []string{"a", "b", "c", "d", "e", "f", "g"},
		SuggestedQuestions: []string{"1", "2", "3", "4", "5"},
	}
	if err := validateProfile(&p); err != nil {
		t.Fatalf("validateProfile() error: %v", err)
	}
	if len(p.TopSkills) != maxTopSkills {
		t.Errorf("TopSkills length = %d, want %d", len(p.TopSkills), maxTopSkills)
	}
	if len(p.SuggestedQuestions) != maxSuggestedAnswers {
		t.Errorf("SuggestedQuestions length = %d, want %d", len(p.SuggestedQuestions), maxSuggestedAnswers)
	}
}

func TestValidateATSResult(t *testing.T) {
	tests := []struct {
		name     string
		result   types.ATSResult
		wantCode string
	}{
		{
			name:   "typical score",
			result: types.ATSResult{Score: 55, Feedback: "Fine.", MissingKeywords: []string{"Go"}},
		},
		{
			name:   "boundary zero",
			result: types.ATSResult{Score: 0, Feedback: "Unparseable."},
		},
		{
			name:   "boundary hundred",
			result: types.ATSResult{Score: 100, Feedback: "Perfect."},
		},
		{
			name:     "negative score",
			result:   types.ATSResult{Score: -1, Feedback: "Bad."},
			wantCode: appErrors.ErrCodeAIResponseInvalid,
		},
		{
			name:     "score above range",
			result:   types.ATSResult{Score: 105, Feedback: "Too good."},
			wantCode: appErrors.ErrCodeAIResponseInvalid,
		},
		{
			name:     "empty feedback",
			result:   types.ATSResult{Score: 50, Feedback: "   "},
			wantCode: appErrors.ErrCodeAIResponseInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.result
			err := validateATSResult(&r)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("validateATSResult() unexpected error: %v", err)
				}
				if r.MissingKeywords == nil {
					t.Error("MissingKeywords should be normalized to an empty slice")
				}
				return
			}
			if err == nil {
				t.Fatal("validateATSResult() expected error, got nil")
			}
			if got := appErrors.CodeOf(err); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestValidateATSResultTruncatesKeywords(t *testing.T) {
	r := types.ATSResult{
		Score:           60,
		Feedback:        "Missing several keywords.",
		MissingKeywords: []string{"a", "b", "c", "d", "e"},
	}
	if err := validateATSResult(&r); err != nil {
		t.Fatalf("validateATSResult() error: %v", err)
	}
	if len(r.MissingKeywords) != maxMissingKeywords {
		t.Errorf("MissingKeywords length = %d, want %d", len(r.MissingKeywords), maxMissingKeywords)
	}
}

func TestExtractTokenUsage(t *testing.T) {
	if got := extractTokenUsage(nil); got != nil {
		t.Errorf("extractTokenUsage(nil) = %v, want nil", got)
	}
	if got := extractTokenUsage(&genai.GenerateContentResponse{}); got != nil {
		t.Errorf("extractTokenUsage(no metadata) = %v, want nil", got)
	}

	resp := &genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 45,
			TotalTokenCount:      165,
		},
	}
	usage := extractTokenUsage(resp)
	if usage == nil {
		t.Fatal("extractTokenUsage() = nil, want usage")
	}
	if usage.InputTokens != 120 || usage.OutputTokens != 45 || usage.TotalTokens != 165 {
		t.Errorf("extractTokenUsage() = %+v, want {120 45 165}", usage)
	}
}

func configWith(temp float32, retries int) config.OperationAIConfig {
	return config.OperationAIConfig{
		Model:       "gemini-2.5-flash",
		Temperature: &temp,
		MaxRetries:  &retries,
	}
}

func TestBuildSchemas(t *testing.T) {
	temp := float32(0.2)
	retries := 2
	g := &GeminiProvider{
		profile: operation{name: "profile", cfg: configWith(temp, retries)},
		ats:     operation{name: "ats", cfg: configWith(temp, retries)},
	}

	profile := g.buildProfileSchema()
	if profile.ResponseMIMEType != "application/json" {
		t.Errorf("profile MIME type = %q, want application/json", profile.ResponseMIMEType)
	}
	for _, field := range []string{"candidateName", "executiveSummary", "topSkills", "suggestedQuestions"} {
		if _, ok := profile.ResponseSchema.Properties[field]; !ok {
			t.Errorf("profile schema missing property %q", field)
		}
	}
	if len(profile.ResponseSchema.Required) != 4 {
		t.Errorf("profile schema required = %v, want 4 fields", profile.ResponseSchema.Required)
	}

	ats := g.buildATSSchema()
	if ats.ResponseSchema.Properties["score"].Type != genai.TypeInteger {
		t.Error("ATS score should be an integer in the schema")
	}
	for _, field := range []string{"score", "feedback", "missingKeywords"} {
		if _, ok := ats.ResponseSchema.Properties[field]; !ok {
			t.Errorf("ATS schema missing property %q", field)
		}
	}
}
