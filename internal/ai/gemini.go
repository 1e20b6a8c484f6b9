package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"talentlens/internal/config"
	appErrors "talentlens/internal/errors"
	"talentlens/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini. Each of the
// four operations carries its own configuration and circuit breaker so
// a misbehaving operation cannot trip the others.
type GeminiProvider struct {
	client   *genai.Client
	chat     operation
	profile  operation
	ats      operation
	critique operation
	logger   *appErrors.Logger

	modelCheckTimeout time.Duration
}

// operation bundles the per-operation configuration with its breakers.
type operation struct {
	name         string
	cfg          config.OperationAIConfig
	breaker      *AICircuitBreaker
	modelBreaker *ModelCircuitBreaker
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider from the application
// configuration.
func NewGeminiProvider(ctx context.Context, appCfg *config.Config, logger *appErrors.Logger) (*GeminiProvider, error) {
	if appCfg.AI.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: appCfg.AI.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	newOp := func(name string, cfg config.OperationAIConfig) operation {
		return operation{
			name:         name,
			cfg:          cfg,
			breaker:      NewAICircuitBreaker(name, &cfg, logger),
			modelBreaker: NewModelCircuitBreaker(name, &cfg, logger),
		}
	}

	return &GeminiProvider{
		client:            client,
		chat:              newOp("chat", appCfg.GetChatConfig()),
		profile:           newOp("profile", appCfg.GetProfileConfig()),
		ats:               newOp("ats", appCfg.GetATSConfig()),
		critique:          newOp("critique", appCfg.GetCritiqueConfig()),
		logger:            logger,
		modelCheckTimeout: appCfg.Observability.HealthCheck.AIModelCheckTimeout,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured
// chat model.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.chat.cfg.Model,
		Available: false,
	}

	timeout := g.modelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := g.chat.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.chat.cfg.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.chat.cfg.Model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}
	return modelInfo
}

// executeWithRetry executes an AI call with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, op *operation, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *op.cfg.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", op.name,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Don't retry on auth errors, invalid input, etc.
		if !isRetryableError(err) {
			break
		}
	}

	return nil, fmt.Errorf("operation %q failed after %d attempts: %w", op.name, maxRetries+1, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		// Timeouts and connection failures are both worth retrying
		return true
	}

	var apiErr *googleapi.Error
	if goerrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// generate runs a single generation call for an operation with tracing,
// circuit breaker and retry, and returns the raw response.
func (g *GeminiProvider) generate(
	ctx context.Context,
	op *operation,
	userPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (*genai.GenerateContentResponse, error) {
	tracer := otel.Tracer("talentlens.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+op.name)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", op.cfg.Model),
		attribute.Float64("ai.temperature", float64(*op.cfg.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	callCtx := ctx
	if op.cfg.Timeout != nil && *op.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, *op.cfg.Timeout)
		defer cancel()
	}

	result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, op, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, op.cfg.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	if usage := extractTokenUsage(result); usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return result, nil
}

// ExtractProfile implements Provider. The response must be well-formed
// JSON matching the profile schema; anything else is a call failure.
func (g *GeminiProvider) ExtractProfile(ctx context.Context, resumeText string) (types.ProfileAnalysis, *TokenUsage, error) {
	prompt := fmt.Sprintf(g.userPrompt(&g.profile), resumeText)

	result, err := g.generate(ctx, &g.profile, prompt, g.buildProfileSchema(),
		attribute.Int("input.resume_length", len(resumeText)))
	if err != nil {
		return types.ProfileAnalysis{}, nil, appErrors.NewAIError(appErrors.ErrCodeAnalysisFailed,
			"Profile extraction failed", err)
	}

	var output types.ProfileAnalysis
	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		return types.ProfileAnalysis{}, nil, appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Profile extraction returned malformed JSON", err)
	}
	if err := validateProfile(&output); err != nil {
		return types.ProfileAnalysis{}, nil, err
	}

	return output, extractTokenUsage(result), nil
}

// ScanATS implements Provider. Scoring calibration is a prompt-level
// contract with the model; only the structural shape is enforced here.
func (g *GeminiProvider) ScanATS(ctx context.Context, resumeText string) (types.ATSResult, *TokenUsage, error) {
	prompt := fmt.Sprintf(g.userPrompt(&g.ats), resumeText)

	result, err := g.generate(ctx, &g.ats, prompt, g.buildATSSchema(),
		attribute.Int("input.resume_length", len(resumeText)))
	if err != nil {
		return types.ATSResult{}, nil, appErrors.NewAIError(appErrors.ErrCodeATSScanFailed,
			"ATS scan failed", err)
	}

	var output types.ATSResult
	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		return types.ATSResult{}, nil, appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"ATS scan returned malformed JSON", err)
	}
	if err := validateATSResult(&output); err != nil {
		return types.ATSResult{}, nil, err
	}

	return output, extractTokenUsage(result), nil
}

// Critique implements Provider. The call is free-text with an extra
// thinking budget for a longer, more deliberate generation.
func (g *GeminiProvider) Critique(ctx context.Context, resumeText string) (string, *TokenUsage, error) {
	prompt := fmt.Sprintf(g.userPrompt(&g.critique), resumeText)

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.critique.cfg.Temperature > 0 {
		genaiConfig.Temperature = g.critique.cfg.Temperature
	}
	if g.critique.cfg.ThinkingBudget != nil && *g.critique.cfg.ThinkingBudget > 0 {
		genaiConfig.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: g.critique.cfg.ThinkingBudget,
		}
	}

	result, err := g.generate(ctx, &g.critique, prompt, genaiConfig,
		attribute.Int("input.resume_length", len(resumeText)))
	if err != nil {
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeChatSendFailed,
			"Deep critique failed", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid,
			"Deep critique returned no text", nil)
	}
	return text, extractTokenUsage(result), nil
}

// StartChat implements Provider. The session is seeded with a system
// instruction embedding the full resume text and a directive to answer
// only from it, at a low temperature.
func (g *GeminiProvider) StartChat(ctx context.Context, resumeText string) (ChatSession, error) {
	systemTemplate := resolvePrompt(
		config.GetLoadedPromptFile(g.chat.cfg.CustomPrompts.SystemPrompts.ChatFile),
		g.chat.cfg.CustomPrompts.SystemPrompts.Chat,
		DefaultSystemPrompts.Chat,
	)
	systemInstruction := fmt.Sprintf(systemTemplate, resumeText)

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.chat.cfg.UseSystemPrompts {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if *g.chat.cfg.Temperature > 0 {
		genaiConfig.Temperature = g.chat.cfg.Temperature
	}

	chat, err := g.client.Chats.Create(ctx, g.chat.cfg.Model, genaiConfig, nil)
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeChatInitFailed,
			"Failed to create chat session", err)
	}

	return &geminiChat{chat: chat, provider: g}, nil
}

// geminiChat wraps a live Gemini chat. The underlying SDK accumulates
// conversational history, so each Send carries only the newest turn.
type geminiChat struct {
	chat     *genai.Chat
	provider *GeminiProvider
}

// Send implements ChatSession
func (c *geminiChat) Send(ctx context.Context, message string) (string, *TokenUsage, error) {
	g := c.provider
	op := &g.chat

	tracer := otel.Tracer("talentlens.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.chat_send")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", op.cfg.Model),
		attribute.Int("input.message_length", len(message)),
	)

	callCtx := ctx
	if op.cfg.Timeout != nil && *op.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, *op.cfg.Timeout)
		defer cancel()
	}

	// No retry here: a replayed chat turn would desync the transcript
	// from the backend history, so failures surface once.
	result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return c.chat.SendMessage(callCtx, genai.Part{Text: message})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeChatSendFailed,
			"Chat message failed", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		text = "I processed the resume but couldn't generate a text response."
	}
	span.SetAttributes(attribute.Bool("success", true))
	return text, extractTokenUsage(result), nil
}

// userPrompt resolves the user prompt template for an operation.
func (g *GeminiProvider) userPrompt(op *operation) string {
	up := &op.cfg.CustomPrompts.UserPrompts
	switch op.name {
	case "profile":
		return resolvePrompt(config.GetLoadedPromptFile(up.ProfileFile), up.Profile, DefaultUserPrompts.Profile)
	case "ats":
		return resolvePrompt(config.GetLoadedPromptFile(up.ATSFile), up.ATS, DefaultUserPrompts.ATS)
	case "critique":
		return resolvePrompt(config.GetLoadedPromptFile(up.CritiqueFile), up.Critique, DefaultUserPrompts.Critique)
	default:
		return ""
	}
}

// buildProfileSchema creates the schema for profile extraction requests
func (g *GeminiProvider) buildProfileSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"candidateName":    {Type: genai.TypeString},
				"executiveSummary": {Type: genai.TypeString},
				"topSkills": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"suggestedQuestions": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"candidateName", "executiveSummary", "topSkills", "suggestedQuestions"},
		},
	}

	if *g.profile.cfg.Temperature > 0 {
		genaiConfig.Temperature = g.profile.cfg.Temperature
	}
	return genaiConfig
}

// buildATSSchema creates the schema for ATS scan requests
func (g *GeminiProvider) buildATSSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":    {Type: genai.TypeInteger},
				"feedback": {Type: genai.TypeString},
				"missingKeywords": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"score", "feedback", "missingKeywords"},
		},
	}

	if *g.ats.cfg.Temperature > 0 {
		genaiConfig.Temperature = g.ats.cfg.Temperature
	}
	return genaiConfig
}

// GetCircuitBreakerStats returns circuit breaker statistics for all operations
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"chat":             g.chat.breaker.GetStats(),
		"profile":          g.profile.breaker.GetStats(),
		"ats":              g.ats.breaker.GetStats(),
		"critique":         g.critique.breaker.GetStats(),
		"model_operations": g.chat.modelBreaker.GetModelStats(),
	}

	healthy := g.chat.breaker.IsHealthy() &&
		g.profile.breaker.IsHealthy() &&
		g.ats.breaker.IsHealthy() &&
		g.critique.breaker.IsHealthy() &&
		g.chat.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = healthy

	return stats
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// The Gemini client has no Close in single-shot usage
	return nil
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from a Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
