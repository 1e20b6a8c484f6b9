package ai

import (
	"context"

	"talentlens/internal/types"
)

// ChatSession is a live conversational handle seeded with a resume.
// The backend retains prior turns of the session, so callers only send
// the newest message.
type ChatSession interface {
	Send(ctx context.Context, message string) (string, *TokenUsage, error)
}

// Provider is the interface to the generative AI backend. All methods
// return token usage information; callers can ignore it if not needed.
type Provider interface {
	// StartChat opens a conversational session grounded in the resume
	// text via a system instruction.
	StartChat(ctx context.Context, resumeText string) (ChatSession, error)

	// ExtractProfile requests a schema-constrained candidate profile.
	ExtractProfile(ctx context.Context, resumeText string) (types.ProfileAnalysis, *TokenUsage, error)

	// ScanATS requests a schema-constrained ATS score for the resume.
	ScanATS(ctx context.Context, resumeText string) (types.ATSResult, *TokenUsage, error)

	// Critique requests a free-text deep critique with a higher
	// reasoning budget.
	Critique(ctx context.Context, resumeText string) (string, *TokenUsage, error)

	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
