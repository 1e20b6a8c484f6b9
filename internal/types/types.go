package types

import "time"

// Document represents an uploaded resume after successful text extraction.
// It is immutable; a new upload replaces it wholesale.
type Document struct {
	FileName   string    `json:"fileName"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single transcript entry. Messages are append-only and
// never mutated after creation, except that a user message whose chat
// turn fails is marked Failed (two-phase commit of the optimistic
// append).
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Failed    bool      `json:"failed,omitempty"`
}

// ATSResult is the outcome of an ATS scan. The score calibration
// ("typical resumes 40-70, only exceptional ones above 80") is a
// prompt-level contract with the model and advisory, not a computed
// guarantee.
type ATSResult struct {
	Score           int      `json:"score"` // 0-100
	Feedback        string   `json:"feedback"`
	MissingKeywords []string `json:"missingKeywords"` // up to 3
}

// ProfileAnalysis is the structured candidate profile extracted from a
// resume. ATSResult stays nil until the user explicitly requests a
// scan; a later scan replaces it in place without recomputing the rest.
type ProfileAnalysis struct {
	CandidateName      string     `json:"candidateName"`
	ExecutiveSummary   string     `json:"executiveSummary"`
	TopSkills          []string   `json:"topSkills"`          // up to 5
	SuggestedQuestions []string   `json:"suggestedQuestions"` // exactly 3
	ATSResult          *ATSResult `json:"atsResult,omitempty"`
}

// CritiqueOutput wraps the free-text deep critique so it can flow
// through the formatter registry like the structured outputs.
type CritiqueOutput struct {
	Critique string `json:"critique"`
}
