package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"talentlens/internal/ai"
	appErrors "talentlens/internal/errors"
	"talentlens/internal/types"
)

// fakeChat is a scripted ChatSession. When block is non-nil, Send
// waits on it before returning, so tests can hold a turn in flight.
type fakeChat struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   chan struct{}
	sent    []string
}

func (c *fakeChat) Send(ctx context.Context, message string) (string, *ai.TokenUsage, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message)
	if c.err != nil {
		return "", nil, c.err
	}
	reply := fmt.Sprintf("reply to %q", message)
	if len(c.replies) > 0 {
		reply = c.replies[0]
		c.replies = c.replies[1:]
	}
	return reply, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

// fakeProvider implements ai.Provider with scripted results.
type fakeProvider struct {
	chat        *fakeChat
	startErr    error
	profile     types.ProfileAnalysis
	profileErr  error
	ats         types.ATSResult
	atsErr      error
	critique    string
	critiqueErr error

	profileBlock  chan struct{}
	atsBlock      chan struct{}
	critiqueBlock chan struct{}
}

func (p *fakeProvider) StartChat(ctx context.Context, resumeText string) (ai.ChatSession, error) {
	if p.startErr != nil {
		return nil, p.startErr
	}
	if p.chat == nil {
		p.chat = &fakeChat{}
	}
	return p.chat, nil
}

func (p *fakeProvider) ExtractProfile(ctx context.Context, resumeText string) (types.ProfileAnalysis, *ai.TokenUsage, error) {
	if p.profileBlock != nil {
		<-p.profileBlock
	}
	if p.profileErr != nil {
		return types.ProfileAnalysis{}, nil, p.profileErr
	}
	return p.profile, &ai.TokenUsage{TotalTokens: 100}, nil
}

func (p *fakeProvider) ScanATS(ctx context.Context, resumeText string) (types.ATSResult, *ai.TokenUsage, error) {
	if p.atsBlock != nil {
		<-p.atsBlock
	}
	if p.atsErr != nil {
		return types.ATSResult{}, nil, p.atsErr
	}
	return p.ats, nil, nil
}

func (p *fakeProvider) Critique(ctx context.Context, resumeText string) (string, *ai.TokenUsage, error) {
	if p.critiqueBlock != nil {
		<-p.critiqueBlock
	}
	if p.critiqueErr != nil {
		return "", nil, p.critiqueErr
	}
	return p.critique, nil, nil
}

func (p *fakeProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake", Available: true}
}

func (p *fakeProvider) Close() error { return nil }

func newTestManager(p *fakeProvider) *Manager {
	return NewManager(p, appErrors.NewLogger(slog.LevelError))
}

func startSession(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.Start(context.Background(), "resume.pdf", "John Doe\nSenior Engineer"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
}

func TestStartCreatesWelcomeMessage(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	startSession(t, m)

	snap := m.Snapshot()
	if snap.Document == nil || snap.Document.FileName != "resume.pdf" {
		t.Fatalf("Snapshot document = %+v, want resume.pdf", snap.Document)
	}
	if len(snap.Transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(snap.Transcript))
	}
	welcome := snap.Transcript[0]
	if welcome.Role != types.RoleModel {
		t.Errorf("welcome role = %q, want model", welcome.Role)
	}
	if !strings.Contains(welcome.Text, "resume.pdf") {
		t.Errorf("welcome message should name the file, got %q", welcome.Text)
	}
	if snap.Status.Chat != ChatIdle {
		t.Errorf("chat status = %q, want idle", snap.Status.Chat)
	}
}

func TestStartReplacesPriorSession(t *testing.T) {
	m := newTestManager(&fakeProvider{ats: types.ATSResult{Score: 50, Feedback: "ok"}})
	startSession(t, m)

	if _, err := m.RunATSScan(context.Background()); err != nil {
		t.Fatalf("RunATSScan() error: %v", err)
	}
	gen := m.Snapshot().Generation

	if err := m.Start(context.Background(), "other.txt", "Jane Doe"); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	snap := m.Snapshot()
	if snap.Generation <= gen {
		t.Errorf("generation = %d, want > %d", snap.Generation, gen)
	}
	if snap.Status.ATS != ATSNone || snap.Profile != nil {
		t.Error("prior analysis state leaked into the new session")
	}
	if snap.Document.FileName != "other.txt" {
		t.Errorf("document = %q, want other.txt", snap.Document.FileName)
	}
	if len(snap.Transcript) != 1 {
		t.Errorf("transcript length = %d, want only the new welcome message", len(snap.Transcript))
	}
}

func TestChatInitFailureLeavesUsableSession(t *testing.T) {
	p := &fakeProvider{startErr: errors.New("quota exhausted")}
	m := newTestManager(p)

	err := m.Start(context.Background(), "resume.pdf", "text")
	if err == nil {
		t.Fatal("Start() expected chat init error")
	}
	snap := m.Snapshot()
	if snap.Document == nil {
		t.Fatal("session should survive a chat init failure")
	}
	if snap.Status.Chat != ChatFailed {
		t.Errorf("chat status = %q, want failed", snap.Status.Chat)
	}

	// Sends are rejected until the chat channel exists
	if _, err := m.SendMessage(context.Background(), "hi"); appErrors.CodeOf(err) != appErrors.ErrCodeChatNotReady {
		t.Errorf("SendMessage() code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeChatNotReady)
	}

	// RetryChat recovers
	p.startErr = nil
	if err := m.RetryChat(context.Background()); err != nil {
		t.Fatalf("RetryChat() error: %v", err)
	}
	if got := m.Snapshot().Status.Chat; got != ChatIdle {
		t.Errorf("chat status after retry = %q, want idle", got)
	}
}

func TestSendMessageAppendsInOrder(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	startSession(t, m)

	for i := range 3 {
		if _, err := m.SendMessage(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("SendMessage(%d) error: %v", i, err)
		}
	}

	snap := m.Snapshot()
	// welcome + 3 * (user + model)
	if len(snap.Transcript) != 7 {
		t.Fatalf("transcript length = %d, want 7", len(snap.Transcript))
	}
	seen := make(map[string]bool)
	for i, msg := range snap.Transcript {
		if seen[msg.ID] {
			t.Errorf("duplicate message id %q", msg.ID)
		}
		seen[msg.ID] = true
		wantRole := types.RoleModel
		if i%2 == 1 {
			wantRole = types.RoleUser
		}
		if msg.Role != wantRole {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, wantRole)
		}
	}
}

func TestSendMessageFailureMarksUserMessage(t *testing.T) {
	p := &fakeProvider{chat: &fakeChat{err: errors.New("backend down")}}
	m := newTestManager(p)
	startSession(t, m)

	if _, err := m.SendMessage(context.Background(), "hello"); err == nil {
		t.Fatal("SendMessage() expected error")
	}
	snap := m.Snapshot()
	if len(snap.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want welcome + failed user message", len(snap.Transcript))
	}
	failed := snap.Transcript[1]
	if failed.Role != types.RoleUser || !failed.Failed {
		t.Errorf("user message = %+v, want Failed=true", failed)
	}
	if snap.Status.Chat != ChatIdle {
		t.Errorf("chat status = %q, want idle after failure", snap.Status.Chat)
	}

	// The channel stays usable for the next turn
	p.chat.err = nil
	if _, err := m.SendMessage(context.Background(), "again"); err != nil {
		t.Fatalf("SendMessage() after failure: %v", err)
	}
}

func TestConcurrentSendRejected(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProvider{chat: &fakeChat{block: block}}
	m := newTestManager(p)
	startSession(t, m)

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "slow question")
		done <- err
	}()

	waitForChatStatus(t, m, ChatThinking)

	if _, err := m.SendMessage(context.Background(), "eager question"); appErrors.CodeOf(err) != appErrors.ErrCodeChatBusy {
		t.Errorf("concurrent SendMessage() code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeChatBusy)
	}
	if _, err := m.DeepCritique(context.Background()); appErrors.CodeOf(err) != appErrors.ErrCodeChatBusy {
		t.Errorf("DeepCritique() during send code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeChatBusy)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("in-flight SendMessage() error: %v", err)
	}
}

func TestStaleSendDiscardedAfterReset(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProvider{chat: &fakeChat{block: block}}
	m := newTestManager(p)
	startSession(t, m)

	done := make(chan error, 1)
	go func() {
		_, err := m.SendMessage(context.Background(), "doomed question")
		done <- err
	}()

	waitForChatStatus(t, m, ChatThinking)
	m.Reset()
	close(block)

	if err := <-done; appErrors.CodeOf(err) != appErrors.ErrCodeStaleGeneration {
		t.Errorf("stale SendMessage() code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeStaleGeneration)
	}

	snap := m.Snapshot()
	if len(snap.Transcript) != 0 || snap.Document != nil {
		t.Error("stale settle mutated the reset session")
	}
	if snap.Status.Chat != ChatNone {
		t.Errorf("chat status = %q, want none after reset", snap.Status.Chat)
	}
}

func TestProfileThenATSMerge(t *testing.T) {
	p := &fakeProvider{
		profile: types.ProfileAnalysis{
			CandidateName:      "John Doe",
			ExecutiveSummary:   "Engineer.",
			TopSkills:          []string{"Go"},
			SuggestedQuestions: []string{"Q1", "Q2", "Q3"},
		},
		ats: types.ATSResult{Score: 62, Feedback: "Needs keywords.", MissingKeywords: []string{"Kubernetes"}},
	}
	m := newTestManager(p)
	startSession(t, m)

	if _, err := m.ExtractProfile(context.Background()); err != nil {
		t.Fatalf("ExtractProfile() error: %v", err)
	}
	if _, err := m.RunATSScan(context.Background()); err != nil {
		t.Fatalf("RunATSScan() error: %v", err)
	}

	snap := m.Snapshot()
	if snap.Profile == nil || snap.Profile.ATSResult == nil {
		t.Fatal("ATS result was not merged into the profile")
	}
	if snap.Profile.CandidateName != "John Doe" {
		t.Error("merge altered an unrelated profile field")
	}
	if snap.Profile.ATSResult.Score != 62 {
		t.Errorf("merged score = %d, want 62", snap.Profile.ATSResult.Score)
	}
}

func TestATSThenProfilePreservesScan(t *testing.T) {
	p := &fakeProvider{
		profile: types.ProfileAnalysis{
			CandidateName:      "John Doe",
			ExecutiveSummary:   "Engineer.",
			TopSkills:          []string{"Go"},
			SuggestedQuestions: []string{"Q1", "Q2", "Q3"},
		},
		ats: types.ATSResult{Score: 71, Feedback: "Solid."},
	}
	m := newTestManager(p)
	startSession(t, m)

	if _, err := m.RunATSScan(context.Background()); err != nil {
		t.Fatalf("RunATSScan() error: %v", err)
	}
	if _, err := m.ExtractProfile(context.Background()); err != nil {
		t.Fatalf("ExtractProfile() error: %v", err)
	}

	snap := m.Snapshot()
	if snap.Profile == nil || snap.Profile.ATSResult == nil {
		t.Fatal("profile refresh dropped the completed ATS scan")
	}
	if snap.Profile.ATSResult.Score != 71 {
		t.Errorf("preserved score = %d, want 71", snap.Profile.ATSResult.Score)
	}
}

func TestATSFailureKeepsPriorResult(t *testing.T) {
	p := &fakeProvider{ats: types.ATSResult{Score: 55, Feedback: "First."}}
	m := newTestManager(p)
	startSession(t, m)

	if _, err := m.RunATSScan(context.Background()); err != nil {
		t.Fatalf("RunATSScan() error: %v", err)
	}

	p.atsErr = errors.New("backend down")
	if _, err := m.RunATSScan(context.Background()); err == nil {
		t.Fatal("RunATSScan() expected error")
	}

	snap := m.Snapshot()
	if snap.Status.ATS != ATSFailed {
		t.Errorf("ats status = %q, want failed", snap.Status.ATS)
	}
	// RunATSScan again succeeds and replaces
	p.atsErr = nil
	result, err := m.RunATSScan(context.Background())
	if err != nil {
		t.Fatalf("RunATSScan() after failure: %v", err)
	}
	if result.Score != 55 {
		t.Errorf("score = %d, want 55", result.Score)
	}
}

func TestConcurrentATSRejected(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProvider{atsBlock: block, ats: types.ATSResult{Score: 50, Feedback: "ok"}}
	m := newTestManager(p)
	startSession(t, m)

	done := make(chan error, 1)
	go func() {
		_, err := m.RunATSScan(context.Background())
		done <- err
	}()

	waitForATSStatus(t, m, ATSScanning)

	if _, err := m.RunATSScan(context.Background()); appErrors.CodeOf(err) != appErrors.ErrCodeATSScanBusy {
		t.Errorf("concurrent RunATSScan() code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeATSScanBusy)
	}

	// Chat stays available while a scan is in flight
	if _, err := m.SendMessage(context.Background(), "still here?"); err != nil {
		t.Errorf("SendMessage() during ATS scan: %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("in-flight RunATSScan() error: %v", err)
	}
}

func TestDeepCritiqueAppendsTurn(t *testing.T) {
	p := &fakeProvider{critique: "The summary is vague and nothing is quantified."}
	m := newTestManager(p)
	startSession(t, m)

	msg, err := m.DeepCritique(context.Background())
	if err != nil {
		t.Fatalf("DeepCritique() error: %v", err)
	}
	if msg.Text != p.critique {
		t.Errorf("critique reply = %q, want scripted critique", msg.Text)
	}

	snap := m.Snapshot()
	if len(snap.Transcript) != 3 {
		t.Fatalf("transcript length = %d, want welcome + request + critique", len(snap.Transcript))
	}
	if snap.Transcript[1].Role != types.RoleUser || snap.Transcript[1].Text != critiqueRequestText {
		t.Errorf("injected turn = %+v, want the fixed critique request", snap.Transcript[1])
	}
}

func TestOperationsWithoutSession(t *testing.T) {
	m := newTestManager(&fakeProvider{})

	ctx := context.Background()
	if _, err := m.SendMessage(ctx, "hi"); appErrors.CodeOf(err) != appErrors.ErrCodeNoSession {
		t.Errorf("SendMessage code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeNoSession)
	}
	if _, err := m.ExtractProfile(ctx); appErrors.CodeOf(err) != appErrors.ErrCodeNoSession {
		t.Errorf("ExtractProfile code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeNoSession)
	}
	if _, err := m.RunATSScan(ctx); appErrors.CodeOf(err) != appErrors.ErrCodeNoSession {
		t.Errorf("RunATSScan code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeNoSession)
	}
	if _, err := m.DeepCritique(ctx); appErrors.CodeOf(err) != appErrors.ErrCodeNoSession {
		t.Errorf("DeepCritique code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeNoSession)
	}
	if err := m.RetryChat(ctx); appErrors.CodeOf(err) != appErrors.ErrCodeNoSession {
		t.Errorf("RetryChat code = %q, want %q", appErrors.CodeOf(err), appErrors.ErrCodeNoSession)
	}
}

func TestTokenUsageAccumulates(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	startSession(t, m)

	for range 2 {
		if _, err := m.SendMessage(context.Background(), "q"); err != nil {
			t.Fatalf("SendMessage() error: %v", err)
		}
	}

	usage := m.TokenUsage()
	if usage.Calls != 2 {
		t.Errorf("usage calls = %d, want 2", usage.Calls)
	}
	if usage.TotalTokens != 30 {
		t.Errorf("total tokens = %d, want 30", usage.TotalTokens)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	p := &fakeProvider{
		profile: types.ProfileAnalysis{
			CandidateName:      "John Doe",
			ExecutiveSummary:   "Engineer.",
			TopSkills:          []string{"Go", "SQL"},
			SuggestedQuestions: []string{"Q1", "Q2", "Q3"},
		},
	}
	m := newTestManager(p)
	startSession(t, m)
	if _, err := m.ExtractProfile(context.Background()); err != nil {
		t.Fatalf("ExtractProfile() error: %v", err)
	}

	snap := m.Snapshot()
	snap.Profile.TopSkills[0] = "mutated"
	snap.Transcript[0].Text = "mutated"

	fresh := m.Snapshot()
	if fresh.Profile.TopSkills[0] == "mutated" {
		t.Error("snapshot shares TopSkills backing array with the manager")
	}
	if fresh.Transcript[0].Text == "mutated" {
		t.Error("snapshot shares transcript backing array with the manager")
	}
}

func waitForChatStatus(t *testing.T, m *Manager, want ChatStatus) {
	t.Helper()
	for range 200 {
		if m.Snapshot().Status.Chat == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("chat status never reached %q", want)
}

func waitForATSStatus(t *testing.T, m *Manager, want ATSStatus) {
	t.Helper()
	for range 200 {
		if m.Snapshot().Status.ATS == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ats status never reached %q", want)
}
