package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"qchat/internal/chat"
	"qchat/pkg/logger"
	"qchat/pkg/validator"
)

// SessionHandler manages session lifecycle endpoints.
type SessionHandler struct {
	service     *chat.Service
	defaultBits int
	validator   *validator.Validator
	logger      logger.Logger
}

func NewSessionHandler(service *chat.Service, defaultBits int, val *validator.Validator, log logger.Logger) *SessionHandler {
	return &SessionHandler{
		service:     service,
		defaultBits: defaultBits,
		validator:   val,
		logger:      log,
	}
}

// CreateSession starts a new chat session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.logger.Error("Failed to create session", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"session_code": session.SessionCode,
		"session":      session,
	})
}

type joinSessionRequest struct {
	SessionCode string `json:"session_code" validate:"required,session_code"`
}

// JoinSession resolves an existing active session by its shared code.
func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.SessionCode = strings.ToUpper(strings.TrimSpace(req.SessionCode))

	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.JoinSession(r.Context(), req.SessionCode)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"session":            session,
		"key_time_remaining": h.service.KeyTimeRemaining(session),
	})
}

// GetSession returns session info plus the derived key countdown.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	session, err := h.service.GetSession(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"session":            session,
		"key_time_remaining": h.service.KeyTimeRemaining(session),
	})
}

type generateKeyRequest struct {
	Bits int `json:"bits" validate:"omitempty,min=1,max=4096"`
}

// GenerateKey replaces the session's quantum key.
func (h *SessionHandler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req generateKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Bits == 0 {
		req.Bits = h.defaultBits
	}

	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.GenerateKey(r.Context(), code, req.Bits)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"key":          result.Key,
		"key_length":   result.KeyLength,
		"source":       result.Source,
		"measurements": result.Measurements,
		"expires_in":   result.ExpiresIn,
	})
}

// Analytics returns the session dashboard aggregate.
func (h *SessionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	report, err := h.service.Analytics(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"analytics": report,
	})
}

type exportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=decrypted encrypted"`
}

// ExportChat returns a downloadable transcript.
func (h *SessionHandler) ExportChat(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = chat.ExportDecrypted
	}

	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	export, err := h.service.ExportChat(r.Context(), code, req.Format)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"export_data": export,
		"filename":    export.Filename,
	})
}

// decodeBody parses a JSON request body, tolerating an empty body for
// endpoints whose fields are all optional.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		if err == io.EOF {
			return true
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
