package ai

// SystemPrompts contains system-level instructions for AI interactions
type SystemPrompts struct {
	Chat string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	Profile  string
	ATS      string
	Critique string
}

// DefaultSystemPrompts provides the default system instructions.
// The chat instruction template embeds the resume text verbatim and
// constrains the model to answer only from it.
var DefaultSystemPrompts = SystemPrompts{
	Chat: `You are an Expert Talent Analyst at a Fortune 500 company.
You have been provided with the text of a resume (CV). Your goal is to provide deep, accurate, and actionable insights.

RESUME CONTEXT:
%s

GUIDELINES:
1. Answer ONLY based on the resume.
2. Be critical but fair.
3. Keep answers concise and professional.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Profile: `Extract the candidate profile from this resume.

Requirements:
- candidateName: the candidate's full name as written on the resume
- executiveSummary: at most 30 words, written in the third person
- topSkills: up to 5 of the candidate's strongest skills
- suggestedQuestions: exactly 3 interview questions, each specific to content unique to this resume, never generic

**Resume:**
-----
%s
-----`,

	ATS: `Act as a strict Applicant Tracking System (ATS) and analyze this resume.

Scoring rubric:
- Keyword Density (40%%)
- Formatting & Readability (30%%)
- Quantifiable Impact (30%%)

Be strict in your calibration: a typical resume scores between 40 and 70. Only truly exceptional resumes score above 80.

Report:
- score: an integer from 0 to 100
- feedback: a short, direct assessment of the biggest problems
- missingKeywords: up to 3 high-value keywords the resume lacks

**Resume:**
-----
%s
-----`,

	Critique: `Perform a deep critique of this resume. Focus on what is wrong with it: weaknesses, gaps, vague claims, and missed opportunities. Be direct.

**Resume:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}

// resolvePrompt selects the correct prompt string based on priority:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. The hardcoded default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
