package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qchat/pkg/config"
	"qchat/pkg/logger"
)

func unconfiguredAdvisor(t *testing.T) *GeminiAdvisor {
	t.Helper()
	return NewGeminiAdvisor(context.Background(), config.AIConfig{
		APIKey:  "",
		Model:   "gemini-2.0-flash-exp",
		Timeout: time.Second,
	}, logger.NewNop())
}

func TestUnconfiguredAdvisorReturnsDefaults(t *testing.T) {
	a := unconfiguredAdvisor(t)
	ctx := context.Background()

	assert.False(t, a.Configured())

	sentiment := a.AnalyzeSentiment(ctx, "hello there")
	assert.Equal(t, DefaultSentiment(), sentiment)

	replies := a.SuggestReplies(ctx, []ChatTurn{{Sender: "alice", Message: "hi"}}, "bob")
	assert.Equal(t, DefaultReplies(), replies)

	threats := a.DetectThreats(ctx, "nothing suspicious")
	assert.Equal(t, DefaultThreatReport(), threats)

	translation := a.Translate(ctx, "bonjour", "english")
	assert.Equal(t, DefaultTranslation("bonjour"), translation)

	analysis := a.AnalyzeKey(ctx, "10101010", KeyInfo{Length: 8, Source: "circuit-simulator"})
	assert.Equal(t, DefaultKeyAnalysis(), analysis)
}

func TestUnconfiguredInsightsCarryMessageCount(t *testing.T) {
	a := unconfiguredAdvisor(t)

	history := []ChatTurn{
		{Sender: "alice", Message: "hi"},
		{Sender: "bob", Message: "hey"},
		{Sender: "alice", Message: "all good?"},
	}
	insights := a.ConversationInsights(context.Background(), history)
	assert.Equal(t, DefaultInsights(3), insights)

	empty := a.ConversationInsights(context.Background(), nil)
	assert.Equal(t, 0, empty.TotalMessages)
}

func TestDefaultsAreSafe(t *testing.T) {
	assert.False(t, DefaultSentiment().SecurityThreat)
	assert.True(t, DefaultThreatReport().Safe)
	assert.NotNil(t, DefaultThreatReport().Threats)
	assert.NotEmpty(t, DefaultReplies())
	assert.Equal(t, "untranslated", DefaultTranslation("untranslated").Translated)
}

func TestPromptsCarryInputs(t *testing.T) {
	history := []ChatTurn{
		{Sender: "alice", Message: "first"},
		{Sender: "bob", Message: "second"},
	}

	assert.Contains(t, sentimentPrompt("check this"), "check this")
	assert.Contains(t, threatPrompt("sketchy link"), "sketchy link")
	assert.Contains(t, translatePrompt("hola", "english"), "hola")
	assert.Contains(t, translatePrompt("hola", "english"), "english")

	replies := repliesPrompt(history, "bob")
	assert.Contains(t, replies, "first")
	assert.Contains(t, replies, "bob")

	insights := insightsPrompt(history)
	assert.Contains(t, insights, "second")
}
