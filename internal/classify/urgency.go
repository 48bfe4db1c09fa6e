package classify

import (
	"strings"

	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/mail"
)

// Sentiment is derived from the final urgency score, never set directly.
type Sentiment string

const (
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
)

// Assessment is the urgency result for one message.
type Assessment struct {
	UrgencyScore int       `json:"urgency_score"`
	Sentiment    Sentiment `json:"sentiment"`
}

// amountThresholdGBP is the monetary amount above which urgency and billing
// escalation both trigger.
const amountThresholdGBP = 100

// negativeMarkers each add to the score once per marker present. "again" is
// a substring of "late again", so a repeat complaint scores both.
var negativeMarkers = []string{"complaining", "unacceptable", "late again", "again", "angry"}

// Urgency scores the message additively from a baseline of 10, clamps at
// 100, and derives the sentiment label from the clamped score.
func Urgency(m *mail.Message, extracted *extract.Extracted) Assessment {
	text := m.LowerText()
	score := 10

	if strings.Contains(text, "urgent") {
		score += 50
	}
	if strings.Contains(text, "temperature excursion") || strings.Contains(text, "pharmaceuticals") {
		score += 40
	}
	if strings.Contains(text, "customs hold") {
		score += 30
	}
	for _, nm := range negativeMarkers {
		if strings.Contains(text, nm) {
			score += 20
		}
	}
	if extracted.AmountGBP != nil && *extracted.AmountGBP > amountThresholdGBP {
		score += 20
	}
	if strings.Contains(text, "expedite") {
		score += 10
	}
	if score > 100 {
		score = 100
	}

	sentiment := SentimentNeutral
	switch {
	case score >= 80:
		sentiment = SentimentUrgent
	case score >= 50:
		sentiment = SentimentNegative
	}

	return Assessment{UrgencyScore: score, Sentiment: sentiment}
}
