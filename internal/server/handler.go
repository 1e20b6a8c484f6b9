package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "talentlens/internal/errors"
	"talentlens/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// statusForError maps application error codes to HTTP status codes.
func statusForError(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.ErrCodeNoSession:
		return http.StatusNotFound
	case appErrors.ErrCodeChatBusy, appErrors.ErrCodeAnalysisBusy,
		appErrors.ErrCodeATSScanBusy, appErrors.ErrCodeChatNotReady,
		appErrors.ErrCodeStaleGeneration:
		return http.StatusConflict
	case appErrors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case appErrors.ErrCodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case appErrors.ErrCodeEmptyDocument, appErrors.ErrCodeExtractionFailed,
		appErrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForError(err))

	response := ErrorResponse{
		Error:   fallback,
		Code:    appErrors.CodeOf(err),
		Message: err.Error(),
	}
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		s.Logger.LogError(encErr, "Failed to encode error response")
	}
}

// createSessionHandler handles resume upload and session start. The
// upload replaces any existing session. Profile extraction is kicked
// off in the background so the snapshot is available immediately.
func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.create")
		defer span.End()

		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume file", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to read upload", err.Error(), http.StatusBadRequest)
			return
		}

		declaredType := header.Header.Get("Content-Type")
		text, err := s.Extractor.Extract(header.Filename, data, declaredType)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			s.writeDomainError(w, err, "Failed to extract resume text")
			return
		}

		span.SetAttributes(
			attribute.String("upload.file_name", header.Filename),
			attribute.Int("upload.size_bytes", len(data)),
			attribute.Int("document.text_length", len(text)),
		)

		startErr := s.Manager.Start(ctx, header.Filename, text)
		if startErr != nil {
			// A chat init failure still leaves a usable session; the
			// snapshot carries the failed status and retry is possible.
			span.RecordError(startErr)
			s.Logger.LogError(startErr, "Chat initialization failed during session start")
		}

		om.GetMetrics().RecordSessionStarted(ctx, strings.TrimPrefix(declaredType, "application/"))

		// Background profile extraction. The request context dies with
		// the response, so the extraction runs on its own context; a
		// stale settle after reset is a no-op inside the manager.
		go func() {
			bgCtx := context.Background()
			start := time.Now()
			_, err := s.Manager.ExtractProfile(bgCtx)
			om.GetMetrics().RecordAIOperation(bgCtx, "profile", err == nil, time.Since(start), nil, om)
			if err != nil {
				s.Logger.Warn("Background profile extraction failed", "error", err.Error())
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(s.Manager.Snapshot()); err != nil {
			s.Logger.LogError(err, "Failed to encode session response")
		}
	}
}

// getSessionHandler returns a snapshot of the current session
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !s.Manager.Active() {
		writeErrorResponse(w, "No session", "Upload a resume to start a session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Manager.Snapshot()); err != nil {
		s.Logger.LogError(err, "Failed to encode session snapshot")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// deleteSessionHandler resets the current session
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.Manager.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// retryChatHandler re-attempts chat initialization after a failure
func (s *Server) retryChatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.retry_chat")
		defer span.End()

		if err := s.Manager.RetryChat(ctx); err != nil {
			span.RecordError(err)
			s.writeDomainError(w, err, "Failed to initialize chat")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Manager.Snapshot()); err != nil {
			s.Logger.LogError(err, "Failed to encode session snapshot")
		}
	}
}

// messageHandler runs one chat turn against the live session
func (s *Server) messageHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.message")
		defer span.End()

		var req MessageRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeErrorResponse(w, "Missing message text", "text field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(attribute.Int("request.message_length", len(req.Text)))

		start := time.Now()
		reply, err := s.Manager.SendMessage(ctx, req.Text)
		om.GetMetrics().RecordAIOperation(ctx, "chat", err == nil, time.Since(start), nil, om)
		if err != nil {
			span.RecordError(err)
			s.writeDomainError(w, err, "Failed to process chat message")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.length", len(reply.Text)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			s.Logger.LogError(err, "Failed to encode chat reply")
		}
	}
}

// profileHandler runs profile extraction over the session document
func (s *Server) profileHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.profile")
		defer span.End()

		start := time.Now()
		profile, err := s.Manager.ExtractProfile(ctx)
		om.GetMetrics().RecordAIOperation(ctx, "profile", err == nil, time.Since(start), nil, om)
		if err != nil {
			span.RecordError(err)
			s.writeDomainError(w, err, "Failed to extract profile")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("profile.skills_count", len(profile.TopSkills)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(profile); err != nil {
			s.Logger.LogError(err, "Failed to encode profile")
		}
	}
}

// atsHandler runs an ATS scan over the session document
func (s *Server) atsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.ats")
		defer span.End()

		start := time.Now()
		result, err := s.Manager.RunATSScan(ctx)
		om.GetMetrics().RecordAIOperation(ctx, "ats", err == nil, time.Since(start), nil, om)
		if err != nil {
			span.RecordError(err)
			s.writeDomainError(w, err, "Failed to run ATS scan")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("ats.score", result.Score),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			s.Logger.LogError(err, "Failed to encode ATS result")
		}
	}
}

// critiqueHandler runs a deep critique turn against the live session
func (s *Server) critiqueHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentlens.api")
		ctx, span := tracer.Start(ctx, "api.session.critique")
		defer span.End()

		start := time.Now()
		reply, err := s.Manager.DeepCritique(ctx)
		om.GetMetrics().RecordAIOperation(ctx, "critique", err == nil, time.Since(start), nil, om)
		if err != nil {
			span.RecordError(err)
			s.writeDomainError(w, err, "Failed to run deep critique")
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.length", len(reply.Text)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			s.Logger.LogError(err, "Failed to encode critique")
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordRateLimitHit(r.Context(),
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

