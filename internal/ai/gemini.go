package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"qchat/internal/metrics"
	"qchat/pkg/config"
	"qchat/pkg/logger"
)

// GeminiAdvisor implements Advisor against the hosted Gemini API. A missing
// credential or failed client construction leaves the model nil, in which
// case every operation short-circuits to its default.
type GeminiAdvisor struct {
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  logger.Logger
}

// NewGeminiAdvisor builds the advisor from configuration. It never fails:
// configuration absence degrades to default-only mode with a warning log.
func NewGeminiAdvisor(ctx context.Context, cfg config.AIConfig, log logger.Logger) *GeminiAdvisor {
	a := &GeminiAdvisor{timeout: cfg.Timeout, logger: log}

	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, AI advisory runs on defaults", nil)
		return a
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		log.Error("failed to initialize Gemini client, AI advisory runs on defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return a
	}

	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"
	a.model = model

	log.Info("AI advisory initialized", map[string]interface{}{"model": cfg.Model})
	return a
}

// Configured reports whether a live model is behind the advisor.
func (a *GeminiAdvisor) Configured() bool {
	return a.model != nil
}

func (a *GeminiAdvisor) AnalyzeSentiment(ctx context.Context, message string) Sentiment {
	var result Sentiment
	if !a.generate(ctx, "sentiment", sentimentPrompt(message), &result) {
		return DefaultSentiment()
	}
	return result
}

func (a *GeminiAdvisor) SuggestReplies(ctx context.Context, history []ChatTurn, sender string) []string {
	var replies []string
	if !a.generate(ctx, "smart_replies", repliesPrompt(history, sender), &replies) || len(replies) == 0 {
		return DefaultReplies()
	}
	return replies
}

func (a *GeminiAdvisor) DetectThreats(ctx context.Context, message string) ThreatReport {
	var report ThreatReport
	if !a.generate(ctx, "threat_detection", threatPrompt(message), &report) {
		return DefaultThreatReport()
	}
	if report.Threats == nil {
		report.Threats = []string{}
	}
	return report
}

func (a *GeminiAdvisor) ConversationInsights(ctx context.Context, history []ChatTurn) Insights {
	if len(history) == 0 {
		return DefaultInsights(0)
	}
	var insights Insights
	if !a.generate(ctx, "insights", insightsPrompt(history), &insights) {
		return DefaultInsights(len(history))
	}
	// The message count is authoritative locally; the model only estimates it.
	insights.TotalMessages = len(history)
	return insights
}

func (a *GeminiAdvisor) Translate(ctx context.Context, message, targetLanguage string) Translation {
	var translation Translation
	if !a.generate(ctx, "translation", translatePrompt(message, targetLanguage), &translation) {
		return DefaultTranslation(message)
	}
	if translation.Original == "" {
		translation.Original = message
	}
	return translation
}

func (a *GeminiAdvisor) AnalyzeKey(ctx context.Context, key string, info KeyInfo) KeyAnalysis {
	var analysis KeyAnalysis
	if !a.generate(ctx, "key_analysis", keyAnalysisPrompt(key, info), &analysis) {
		return DefaultKeyAnalysis()
	}
	return analysis
}

// generate performs the single attempt against the model: prompt in, JSON
// out, parsed into dest. Returns false on any failure so the caller can fall
// back to its default. The timeout bounds the call even when the service
// never answers.
func (a *GeminiAdvisor) generate(ctx context.Context, operation, prompt string, dest interface{}) bool {
	if a.model == nil {
		metrics.AIRequests.WithLabelValues(operation, "unconfigured").Inc()
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	metrics.AILatency.Observe(time.Since(start).Seconds())

	if err != nil {
		a.logger.Error("AI call failed", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
		metrics.AIRequests.WithLabelValues(operation, "error").Inc()
		return false
	}

	text := responseText(resp)
	if text == "" {
		metrics.AIRequests.WithLabelValues(operation, "empty").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(text), dest); err != nil {
		a.logger.Warn("AI reply did not parse as expected structure", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
		metrics.AIRequests.WithLabelValues(operation, "parse_error").Inc()
		return false
	}

	metrics.AIRequests.WithLabelValues(operation, "ok").Inc()
	return true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
