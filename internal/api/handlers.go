package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/directory"
	"github.com/ppiankov/trustlens/internal/logging"
	"github.com/ppiankov/trustlens/internal/model"
)

func (s *Server) handleAnalysisRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	req, err := decodeAnalysisRequest(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment, err := s.assessor.Assess(r.Context(), req)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("assessment failed", logging.Key(req.CallerKey), zap.Error(err))
		}
		s.respondWithError(w, code, err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	key := callerKey(r)
	if key == "" {
		s.respondWithJSON(w, http.StatusUnauthorized, directory.ValidateResponse{Error: "missing api key"})
		return
	}

	info, err := s.validator.Validate(r.Context(), key)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("key validation failed", logging.Key(key), zap.Error(err))
			code = http.StatusServiceUnavailable
		}
		s.respondWithJSON(w, code, directory.ValidateResponse{Error: err.Error()})
		return
	}

	s.respondWithJSON(w, http.StatusOK, directory.ValidateResponse{Valid: true, Mode: info.Mode, Prompt: info.Prompt})
}

func (s *Server) handleControlBlacklist(w http.ResponseWriter, r *http.Request) {
	key := callerKey(r)
	if _, err := s.validator.Require(r.Context(), key, model.ModeControl); err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusServiceUnavailable
		}
		s.respondWithError(w, code, err.Error())
		return
	}

	entries, err := s.blacklists.Blacklist(r.Context(), key)
	if err != nil {
		s.logger.Error("blacklist lookup failed", logging.Key(key), zap.Error(err))
		s.respondWithError(w, http.StatusServiceUnavailable, "blacklist unavailable")
		return
	}
	if entries == nil {
		entries = []string{}
	}

	s.respondWithJSON(w, http.StatusOK, directory.BlacklistResponse{Blacklist: entries})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	if p, ok := s.blacklists.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			s.logger.Error("health check failed for directory", zap.Error(err))
			status["status"] = "degraded"
			status["directory"] = "unhealthy"
			s.respondWithJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["directory"] = "healthy"
	}

	s.respondWithJSON(w, http.StatusOK, status)
}

// callerKey reads the key from the query string or the X-API-Key header
func callerKey(r *http.Request) string {
	if key := strings.TrimSpace(r.URL.Query().Get("api_key")); key != "" {
		return key
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidKey):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrWrongMode):
		return http.StatusForbidden
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAllServicesFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
