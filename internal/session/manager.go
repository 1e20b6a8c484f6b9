package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"talentlens/internal/ai"
	appErrors "talentlens/internal/errors"
	"talentlens/internal/types"

	"github.com/google/uuid"
)

// ChatStatus describes the lifecycle of the conversational channel.
type ChatStatus string

const (
	ChatNone         ChatStatus = "none"
	ChatInitializing ChatStatus = "initializing"
	ChatIdle         ChatStatus = "idle"
	ChatThinking     ChatStatus = "thinking"
	ChatFailed       ChatStatus = "failed"
)

// ProfileStatus describes the lifecycle of profile extraction.
type ProfileStatus string

const (
	ProfileNone    ProfileStatus = "none"
	ProfilePending ProfileStatus = "pending"
	ProfileReady   ProfileStatus = "ready"
	ProfileFailed  ProfileStatus = "failed"
)

// ATSStatus describes the lifecycle of the ATS scan.
type ATSStatus string

const (
	ATSNone     ATSStatus = "none"
	ATSScanning ATSStatus = "scanning"
	ATSReady    ATSStatus = "ready"
	ATSFailed   ATSStatus = "failed"
)

// Status groups the per-concern states of the live session.
type Status struct {
	Chat    ChatStatus    `json:"chat"`
	Profile ProfileStatus `json:"profile"`
	ATS     ATSStatus     `json:"ats"`
}

// Snapshot is a point-in-time, caller-owned copy of the session state.
type Snapshot struct {
	Document   *types.Document        `json:"document,omitempty"`
	Transcript []types.Message        `json:"transcript"`
	Profile    *types.ProfileAnalysis `json:"profile,omitempty"`
	Status     Status                 `json:"status"`
	LastError  string                 `json:"lastError,omitempty"`
	Generation uint64                 `json:"generation"`
}

// Usage accumulates token consumption across all AI calls of the
// current process, surviving session resets.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
	Calls        int64 `json:"calls"`
}

const critiqueRequestText = "Perform a deep critique of this resume."

// Manager owns at most one live analysis session. All methods are safe
// for concurrent use. AI calls run outside the lock; every settle
// re-checks the generation id so results from a replaced or reset
// session are discarded.
type Manager struct {
	provider ai.Provider
	logger   *appErrors.Logger

	mu            sync.Mutex
	generation    uint64
	doc           *types.Document
	chat          ai.ChatSession
	chatStatus    ChatStatus
	transcript    []types.Message
	profile       *types.ProfileAnalysis
	profileStatus ProfileStatus
	ats           *types.ATSResult
	atsStatus     ATSStatus
	lastError     string

	usage Usage
}

// NewManager creates a session manager backed by the given AI provider.
func NewManager(provider ai.Provider, logger *appErrors.Logger) *Manager {
	return &Manager{
		provider:      provider,
		logger:        logger,
		chatStatus:    ChatNone,
		profileStatus: ProfileNone,
		atsStatus:     ATSNone,
	}
}

// Start replaces any prior session with a fresh one for the given
// document and initializes the chat channel. A chat init failure still
// leaves a usable session; RetryChat re-attempts the channel.
func (m *Manager) Start(ctx context.Context, fileName, text string) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.doc = &types.Document{
		FileName:   fileName,
		Text:       text,
		UploadedAt: time.Now(),
	}
	m.chat = nil
	m.chatStatus = ChatInitializing
	m.transcript = []types.Message{{
		ID:        uuid.NewString(),
		Role:      types.RoleModel,
		Text:      fmt.Sprintf("Hello! I've analyzed %s. Ask me anything about this candidate, or run an ATS scan or a deep critique.", fileName),
		Timestamp: time.Now(),
	}}
	m.profile = nil
	m.profileStatus = ProfileNone
	m.ats = nil
	m.atsStatus = ATSNone
	m.lastError = ""
	m.mu.Unlock()

	return m.initChat(ctx, gen, text)
}

// RetryChat re-attempts chat initialization after a failure without
// disturbing the rest of the session.
func (m *Manager) RetryChat(ctx context.Context) error {
	m.mu.Lock()
	if m.doc == nil {
		m.mu.Unlock()
		return appErrors.NewSessionError(appErrors.ErrCodeNoSession,
			"No resume has been uploaded", nil)
	}
	if m.chatStatus == ChatInitializing || m.chatStatus == ChatThinking {
		m.mu.Unlock()
		return appErrors.NewSessionError(appErrors.ErrCodeChatBusy,
			"Chat initialization is already in progress", nil)
	}
	if m.chat != nil {
		m.mu.Unlock()
		return nil
	}
	gen := m.generation
	text := m.doc.Text
	m.chatStatus = ChatInitializing
	m.mu.Unlock()

	return m.initChat(ctx, gen, text)
}

func (m *Manager) initChat(ctx context.Context, gen uint64, text string) error {
	chat, err := m.provider.StartChat(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return nil
	}
	if err != nil {
		m.chatStatus = ChatFailed
		m.lastError = err.Error()
		m.logger.LogError(err, "Chat initialization failed")
		return err
	}
	m.chat = chat
	m.chatStatus = ChatIdle
	return nil
}

// SendMessage runs one chat turn. The user message is appended before
// the call; on failure it stays in the transcript marked failed and no
// model reply is appended. At most one turn is in flight at a time.
func (m *Manager) SendMessage(ctx context.Context, text string) (types.Message, error) {
	m.mu.Lock()
	if m.doc == nil {
		m.mu.Unlock()
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeNoSession,
			"No resume has been uploaded", nil)
	}
	if m.chatStatus == ChatThinking {
		m.mu.Unlock()
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeChatBusy,
			"A chat turn is already in flight", nil)
	}
	if m.chat == nil {
		m.mu.Unlock()
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeChatNotReady,
			"The chat session is not ready", nil)
	}

	userMsg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	m.transcript = append(m.transcript, userMsg)
	m.chatStatus = ChatThinking
	gen := m.generation
	chat := m.chat
	m.mu.Unlock()

	reply, usage, err := chat.Send(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordUsage(usage)
	if m.generation != gen {
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeStaleGeneration,
			"The session was reset while the message was in flight", nil)
	}
	m.chatStatus = ChatIdle
	if err != nil {
		m.markFailed(userMsg.ID)
		m.lastError = err.Error()
		return types.Message{}, err
	}

	modelMsg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleModel,
		Text:      reply,
		Timestamp: time.Now(),
	}
	m.transcript = append(m.transcript, modelMsg)
	return modelMsg, nil
}

// DeepCritique injects a fixed critique request as a chat turn and
// answers it with a higher-effort generation over the full document.
// It shares the in-flight gate with SendMessage.
func (m *Manager) DeepCritique(ctx context.Context) (types.Message, error) {
	m.mu.Lock()
	if m.doc == nil {
		m.mu.Unlock()
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeNoSession,
			"No resume has been uploaded", nil)
	}
	if m.chatStatus == ChatThinking {
		m.mu.Unlock()
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeChatBusy,
			"A chat turn is already in flight", nil)
	}

	userMsg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Text:      critiqueRequestText,
		Timestamp: time.Now(),
	}
	m.transcript = append(m.transcript, userMsg)
	m.chatStatus = ChatThinking
	gen := m.generation
	text := m.doc.Text
	m.mu.Unlock()

	critique, usage, err := m.provider.Critique(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordUsage(usage)
	if m.generation != gen {
		return types.Message{}, appErrors.NewSessionError(appErrors.ErrCodeStaleGeneration,
			"The session was reset while the critique was in flight", nil)
	}
	m.chatStatus = ChatIdle
	if err != nil {
		m.markFailed(userMsg.ID)
		m.lastError = err.Error()
		return types.Message{}, err
	}

	modelMsg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleModel,
		Text:      critique,
		Timestamp: time.Now(),
	}
	m.transcript = append(m.transcript, modelMsg)
	return modelMsg, nil
}

// ExtractProfile runs schema-constrained profile extraction over the
// document. Independent of chat state; one extraction in flight at a
// time; failure leaves any prior profile in place.
func (m *Manager) ExtractProfile(ctx context.Context) (types.ProfileAnalysis, error) {
	m.mu.Lock()
	if m.doc == nil {
		m.mu.Unlock()
		return types.ProfileAnalysis{}, appErrors.NewSessionError(appErrors.ErrCodeNoSession,
			"No resume has been uploaded", nil)
	}
	if m.profileStatus == ProfilePending {
		m.mu.Unlock()
		return types.ProfileAnalysis{}, appErrors.NewSessionError(appErrors.ErrCodeAnalysisBusy,
			"A profile extraction is already in flight", nil)
	}
	m.profileStatus = ProfilePending
	gen := m.generation
	text := m.doc.Text
	m.mu.Unlock()

	profile, usage, err := m.provider.ExtractProfile(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordUsage(usage)
	if m.generation != gen {
		return types.ProfileAnalysis{}, appErrors.NewSessionError(appErrors.ErrCodeStaleGeneration,
			"The session was reset while the extraction was in flight", nil)
	}
	if err != nil {
		m.profileStatus = ProfileFailed
		m.lastError = err.Error()
		return types.ProfileAnalysis{}, err
	}

	// A completed ATS scan survives a later profile refresh.
	if m.ats != nil {
		atsCopy := *m.ats
		profile.ATSResult = &atsCopy
	}
	m.profile = &profile
	m.profileStatus = ProfileReady
	return profile, nil
}

// RunATSScan runs the ATS simulation over the document. One scan in
// flight at a time; the result merges into the profile analysis
// without touching its other fields; failure keeps the prior result.
func (m *Manager) RunATSScan(ctx context.Context) (types.ATSResult, error) {
	m.mu.Lock()
	if m.doc == nil {
		m.mu.Unlock()
		return types.ATSResult{}, appErrors.NewSessionError(appErrors.ErrCodeNoSession,
			"No resume has been uploaded", nil)
	}
	if m.atsStatus == ATSScanning {
		m.mu.Unlock()
		return types.ATSResult{}, appErrors.NewSessionError(appErrors.ErrCodeATSScanBusy,
			"An ATS scan is already in flight", nil)
	}
	m.atsStatus = ATSScanning
	gen := m.generation
	text := m.doc.Text
	m.mu.Unlock()

	result, usage, err := m.provider.ScanATS(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordUsage(usage)
	if m.generation != gen {
		return types.ATSResult{}, appErrors.NewSessionError(appErrors.ErrCodeStaleGeneration,
			"The session was reset while the scan was in flight", nil)
	}
	if err != nil {
		m.atsStatus = ATSFailed
		m.lastError = err.Error()
		return types.ATSResult{}, err
	}

	m.ats = &result
	m.atsStatus = ATSReady
	if m.profile != nil {
		atsCopy := result
		m.profile.ATSResult = &atsCopy
	}
	return result, nil
}

// Reset discards the session atomically. In-flight results from before
// the reset are discarded when they settle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.doc = nil
	m.chat = nil
	m.chatStatus = ChatNone
	m.transcript = nil
	m.profile = nil
	m.profileStatus = ProfileNone
	m.ats = nil
	m.atsStatus = ATSNone
	m.lastError = ""
}

// Active reports whether a session holds a document.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc != nil
}

// Snapshot returns a caller-owned copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Transcript: make([]types.Message, len(m.transcript)),
		Status: Status{
			Chat:    m.chatStatus,
			Profile: m.profileStatus,
			ATS:     m.atsStatus,
		},
		LastError:  m.lastError,
		Generation: m.generation,
	}
	copy(snap.Transcript, m.transcript)

	if m.doc != nil {
		docCopy := *m.doc
		snap.Document = &docCopy
	}
	if m.profile != nil {
		profileCopy := *m.profile
		profileCopy.TopSkills = append([]string(nil), m.profile.TopSkills...)
		profileCopy.SuggestedQuestions = append([]string(nil), m.profile.SuggestedQuestions...)
		if m.profile.ATSResult != nil {
			atsCopy := *m.profile.ATSResult
			atsCopy.MissingKeywords = append([]string(nil), m.profile.ATSResult.MissingKeywords...)
			profileCopy.ATSResult = &atsCopy
		}
		snap.Profile = &profileCopy
	}
	return snap
}

// TokenUsage returns cumulative token consumption for this process.
func (m *Manager) TokenUsage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *Manager) recordUsage(usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	m.usage.InputTokens += usage.InputTokens
	m.usage.OutputTokens += usage.OutputTokens
	m.usage.TotalTokens += usage.TotalTokens
	m.usage.Calls++
}

// markFailed flags a transcript message by id. Caller holds the lock.
func (m *Manager) markFailed(id string) {
	for i := range m.transcript {
		if m.transcript[i].ID == id {
			m.transcript[i].Failed = true
			return
		}
	}
}
