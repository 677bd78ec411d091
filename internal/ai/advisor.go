// Package ai provides advisory analysis of chat content through an external
// generative text service. Every operation degrades to a fixed default when
// the service is unconfigured, unreachable, or returns something unparseable;
// nothing here ever gates message send or receive.
package ai

import "context"

// ChatTurn is one plaintext exchange handed to the model for context.
type ChatTurn struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Sentiment is the emotional read on a single message.
type Sentiment struct {
	Sentiment      string  `json:"sentiment"`
	Confidence     float64 `json:"confidence"`
	Emotion        string  `json:"emotion"`
	Intensity      string  `json:"intensity"`
	SecurityThreat bool    `json:"quantum_security_threat"`
}

// ThreatReport is the model's security verdict on a message.
type ThreatReport struct {
	ThreatLevel    string   `json:"threat_level"`
	Threats        []string `json:"threats"`
	Safe           bool     `json:"safe"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
}

// Insights summarizes an entire conversation.
type Insights struct {
	TotalMessages      int      `json:"total_messages"`
	CommunicationStyle string   `json:"communication_style"`
	TopicThemes        []string `json:"topic_themes"`
	SentimentTrend     string   `json:"sentiment_trend"`
	SecurityScore      float64  `json:"security_score"`
	EngagementLevel    string   `json:"engagement_level"`
	Insights           []string `json:"insights"`
	SecurityStatus     string   `json:"quantum_security_status"`
}

// Translation is the result of translating one message.
type Translation struct {
	Translated       string  `json:"translated"`
	DetectedLanguage string  `json:"detected_language"`
	Confidence       float64 `json:"confidence"`
	Original         string  `json:"original"`
}

// KeyInfo is the generation metadata passed to key-quality analysis.
type KeyInfo struct {
	Length int    `json:"length"`
	Source string `json:"source"`
}

// KeyAnalysis is the model's commentary on key quality.
type KeyAnalysis struct {
	QualityScore    float64  `json:"quality_score"`
	Randomness      string   `json:"randomness"`
	SecurityLevel   string   `json:"security_level"`
	Recommendations []string `json:"recommendations"`
	EntropyAnalysis string   `json:"entropy_analysis"`
}

// Advisor is the injected capability for the six advisory operations. The
// contract for every method: one attempt, no retry, and a documented default
// on any failure — never an error.
type Advisor interface {
	AnalyzeSentiment(ctx context.Context, message string) Sentiment
	SuggestReplies(ctx context.Context, history []ChatTurn, sender string) []string
	DetectThreats(ctx context.Context, message string) ThreatReport
	ConversationInsights(ctx context.Context, history []ChatTurn) Insights
	Translate(ctx context.Context, message, targetLanguage string) Translation
	AnalyzeKey(ctx context.Context, key string, info KeyInfo) KeyAnalysis
}

// Documented defaults, returned whenever the external service cannot supply
// a usable answer.

func DefaultSentiment() Sentiment {
	return Sentiment{
		Sentiment:  "neutral",
		Confidence: 0.5,
		Emotion:    "calm",
		Intensity:  "medium",
	}
}

func DefaultReplies() []string {
	return []string{"Got it!", "Sounds good!", "Thanks!"}
}

func DefaultThreatReport() ThreatReport {
	return ThreatReport{
		ThreatLevel:    "low",
		Threats:        []string{},
		Safe:           true,
		Confidence:     0.5,
		Recommendation: "message appears safe",
	}
}

func DefaultInsights(total int) Insights {
	return Insights{
		TotalMessages:      total,
		CommunicationStyle: "casual",
		TopicThemes:        []string{"general"},
		SentimentTrend:     "neutral",
		SecurityScore:      0.8,
		EngagementLevel:    "medium",
		Insights:           []string{"Conversation appears secure", "Good encryption practices"},
		SecurityStatus:     "excellent",
	}
}

func DefaultTranslation(message string) Translation {
	return Translation{
		Translated:       message,
		DetectedLanguage: "unknown",
		Confidence:       0.0,
		Original:         message,
	}
}

func DefaultKeyAnalysis() KeyAnalysis {
	return KeyAnalysis{
		QualityScore:    0.85,
		Randomness:      "excellent",
		SecurityLevel:   "military",
		Recommendations: []string{"Key meets quantum cryptographic standards"},
		EntropyAnalysis: "High entropy quantum-generated key",
	}
}
