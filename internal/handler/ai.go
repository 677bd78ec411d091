package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qchat/internal/ai"
	"qchat/internal/chat"
	"qchat/pkg/cache"
	"qchat/pkg/logger"
	"qchat/pkg/validator"
)

// historyLimit is how many recent turns feed the smart-reply context.
const historyLimit = 5

// AIHandler exposes the advisory operations. Every response is best-effort:
// advisory failures surface as the documented defaults, never as errors.
type AIHandler struct {
	advisor     ai.Advisor
	service     *chat.Service
	cache       *cache.RedisCache
	insightsTTL time.Duration
	validator   *validator.Validator
	logger      logger.Logger
}

func NewAIHandler(advisor ai.Advisor, service *chat.Service, c *cache.RedisCache, insightsTTL time.Duration, val *validator.Validator, log logger.Logger) *AIHandler {
	return &AIHandler{
		advisor:     advisor,
		service:     service,
		cache:       c,
		insightsTTL: insightsTTL,
		validator:   val,
		logger:      log,
	}
}

type analyzeRequest struct {
	Message string `json:"message" validate:"required,max=4096"`
}

// AnalyzeMessage returns sentiment and threat analysis for one message.
func (h *AIHandler) AnalyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sentiment := h.advisor.AnalyzeSentiment(r.Context(), req.Message)
	threats := h.advisor.DetectThreats(r.Context(), req.Message)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"sentiment":       sentiment,
		"threat_analysis": threats,
		"ai_powered":      true,
	})
}

type smartRepliesRequest struct {
	Sender string `json:"sender" validate:"required,sender_role"`
}

// SmartReplies suggests contextual replies for a sender.
func (h *AIHandler) SmartReplies(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req smartRepliesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.service.RecentMessages(r.Context(), code, historyLimit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	history := make([]ai.ChatTurn, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, ai.ChatTurn{
			Sender:  string(msg.Sender),
			Message: msg.OriginalMessage,
		})
	}

	replies := h.advisor.SuggestReplies(r.Context(), history, req.Sender)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"smart_replies": replies,
		"ai_powered":    true,
	})
}

type translateRequest struct {
	Message        string `json:"message" validate:"required,max=4096"`
	TargetLanguage string `json:"target_language"`
}

// Translate translates one message.
func (h *AIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	translation := h.advisor.Translate(r.Context(), req.Message, req.TargetLanguage)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"translation": translation,
		"ai_powered":  true,
	})
}

// Insights summarizes the whole conversation. Results are cached briefly in
// Redis so repeated dashboard polls do not re-consult the model.
func (h *AIHandler) Insights(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	cacheKey := fmt.Sprintf("ai:insights:%s", code)

	var cached ai.Insights
	if h.cache != nil {
		if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"success":    true,
				"insights":   cached,
				"ai_powered": true,
				"cached":     true,
			})
			return
		}
	}

	msgs, err := h.service.ActiveMessages(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	history := make([]ai.ChatTurn, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, ai.ChatTurn{
			Sender:  string(msg.Sender),
			Message: msg.OriginalMessage,
		})
	}

	insights := h.advisor.ConversationInsights(r.Context(), history)

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cacheKey, insights, h.insightsTTL); err != nil {
			h.logger.Warn("failed to cache insights", map[string]interface{}{
				"session_code": code,
				"error":        err.Error(),
			})
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"insights":   insights,
		"ai_powered": true,
	})
}

// KeyAnalysis returns quality commentary on the current session key.
func (h *AIHandler) KeyAnalysis(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	key, err := h.service.SessionKey(r.Context(), code)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	analysis := h.advisor.AnalyzeKey(r.Context(), key, ai.KeyInfo{
		Length: len(key),
		Source: h.service.KeySourceName(),
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"key_analysis": analysis,
		"ai_powered":   true,
	})
}
