// Package classify assigns an intent category to a message and scores its
// urgency. Both operations are total and deterministic.
package classify

import (
	"strings"

	"github.com/linnemanlabs/opsinbox/internal/mail"
)

// Category is the closed set of intent labels.
type Category string

const (
	CategoryException Category = "exception"
	CategoryBooking   Category = "booking"
	CategoryBilling   Category = "billing"
	CategoryTracking  Category = "tracking"
	CategoryUnknown   Category = "unknown"
)

// Classification is the category assignment for one message.
type Classification struct {
	Category        Category `json:"category"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
}

var (
	exceptionKeywords = []string{"customs hold", "hold", "missing hs code", "temperature excursion", "pharmaceuticals", "urgent"}
	bookingKeywords   = []string{"request booking", "booking", "20 ft", "lcl", "fcl", "from", "to", "dep"}
	billingKeywords   = []string{"invoice", "discrepancy", "overcharged", "credit", "£", "payment"}
	trackingKeywords  = []string{"eta", "pod", "update", "where is", "status", "delay", "late", "expedite"}
)

// priority is the fixed category precedence. The first category whose
// keyword list intersects the hit set wins regardless of match counts.
var priority = []struct {
	category Category
	keywords []string
}{
	{CategoryException, exceptionKeywords},
	{CategoryBooking, bookingKeywords},
	{CategoryBilling, billingKeywords},
	{CategoryTracking, trackingKeywords},
}

// Classify assigns a category to the message from its keyword hits. The
// unknown category carries a fixed 0.5 confidence; any other category's
// confidence is min(0.95, 0.4 + matched/len(list)).
func Classify(m *mail.Message) Classification {
	text := m.LowerText()

	// never nil: matched_keywords serializes as an array even with no
	// hits
	hits := []string{}
	for _, p := range priority {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
	}

	category := CategoryUnknown
	var catKeywords []string
	for _, p := range priority {
		if anyIn(hits, p.keywords) {
			category = p.category
			catKeywords = p.keywords
			break
		}
	}

	confidence := 0.5
	if len(catKeywords) > 0 {
		matched := 0
		for _, h := range hits {
			if contains(catKeywords, h) {
				matched++
			}
		}
		confidence = 0.4 + float64(matched)/float64(len(catKeywords))
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return Classification{
		Category:        category,
		Confidence:      confidence,
		MatchedKeywords: hits,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyIn(hits, keywords []string) bool {
	for _, h := range hits {
		if contains(keywords, h) {
			return true
		}
	}
	return false
}
