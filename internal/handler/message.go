package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"qchat/internal/chat"
	"qchat/pkg/logger"
	"qchat/pkg/validator"
)

// MessageHandler manages the send, poll, and attack-simulation endpoints.
type MessageHandler struct {
	service   *chat.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewMessageHandler(service *chat.Service, val *validator.Validator, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// SendMessage encrypts and stores one message. Domain-rule violations
// (expired key, unknown method) are rejected before anything is persisted.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.SessionCode = mux.Vars(r)["code"]

	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.service.SendMessage(r.Context(), &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":           true,
		"message_id":        message.ID,
		"encrypted_message": message.EncryptedText,
		"timestamp":         message.CreatedAt,
	})
}

// GetMessages polls for messages after the client's last-seen cursor.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var afterID int64
	if raw := r.URL.Query().Get("last_message_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "Invalid last_message_id")
			return
		}
		afterID = parsed
	}

	list, err := h.service.GetMessages(r.Context(), code, afterID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"messages":           list.Messages,
		"key_time_remaining": list.KeyTimeRemaining,
	})
}

// SimulateAttack runs the interception demonstration.
func (h *MessageHandler) SimulateAttack(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	summary, err := h.service.SimulateAttack(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"attack_results": summary.Results,
		"summary":        summary.Summary,
	})
}
