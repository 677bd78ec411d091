package ai

import (
	"fmt"
	"strings"
)

func sentimentPrompt(message string) string {
	return fmt.Sprintf(`Analyze the sentiment and emotional tone of this message: %q

Provide a JSON response with:
- sentiment: positive, negative, or neutral
- confidence: score from 0.0 to 1.0
- emotion: primary emotion (happy, sad, angry, excited, calm, worried, etc.)
- intensity: low, medium, or high
- quantum_security_threat: boolean (true if message might contain security threats)`, message)
}

func repliesPrompt(history []ChatTurn, sender string) string {
	return fmt.Sprintf(`Based on this quantum-encrypted conversation context:
%s

Generate 3 smart, contextually relevant reply suggestions for %s.
Make them:
- Natural and conversational
- Appropriate for a secure chat environment
- Varied in tone (casual, professional, friendly)
- Under 50 characters each

Return as JSON array: ["reply1", "reply2", "reply3"]`, renderHistory(history, 5), sender)
}

func threatPrompt(message string) string {
	return fmt.Sprintf(`Analyze this message for potential security threats in a quantum chat environment: %q

Check for:
- Social engineering attempts
- Phishing patterns
- Malicious links or commands
- Data exfiltration attempts
- Quantum key compromise attempts
- Suspicious patterns

Return JSON:
{
    "threat_level": "low|medium|high|critical",
    "threats": ["list of detected threat types"],
    "safe": boolean,
    "confidence": 0.0-1.0,
    "recommendation": "action to take"
}`, message)
}

func insightsPrompt(history []ChatTurn) string {
	return fmt.Sprintf(`Analyze this quantum-encrypted conversation and provide insights:
%s

Provide JSON with:
{
    "total_messages": count,
    "communication_style": "formal|casual|mixed",
    "topic_themes": ["theme1", "theme2"],
    "sentiment_trend": "positive|negative|neutral|mixed",
    "security_score": 0.0-1.0,
    "engagement_level": "low|medium|high",
    "insights": ["insight1", "insight2", "insight3"],
    "quantum_security_status": "excellent|good|moderate|concerning"
}`, renderHistory(history, len(history)))
}

func translatePrompt(message, targetLanguage string) string {
	target := targetLanguage
	if target == "" || target == "auto" {
		target = "detect and translate to English"
	}
	return fmt.Sprintf(`Translate this message: %q
Target language: %s

Return JSON:
{
    "translated": "translated text",
    "detected_language": "detected source language",
    "confidence": 0.0-1.0,
    "original": "original message"
}`, message, target)
}

func keyAnalysisPrompt(key string, info KeyInfo) string {
	return fmt.Sprintf(`Analyze this quantum-generated key for cryptographic quality:
Key: %s
Generation info: length=%d source=%s

Evaluate:
- Randomness quality
- Bit distribution
- Cryptographic strength
- Potential patterns

Return JSON:
{
    "quality_score": 0.0-1.0,
    "randomness": "poor|fair|good|excellent",
    "security_level": "low|medium|high|military",
    "recommendations": ["recommendation1", "recommendation2"],
    "entropy_analysis": "brief analysis"
}`, key, info.Length, info.Source)
}

// renderHistory formats the most recent n turns, oldest first.
func renderHistory(history []ChatTurn, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Sender, turn.Message))
	}
	return strings.Join(lines, "\n")
}
