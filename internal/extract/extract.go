// Package extract derives typed, optionally-absent entities from raw
// message text using fixed pattern rules. Extraction is total: an entity
// that does not appear is nil, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/linnemanlabs/opsinbox/internal/mail"
)

// Extracted holds the entities found in one message. All pointer fields are
// nil when the entity was not present. KeywordHits and MatchedStrings
// preserve scan order.
type Extracted struct {
	Container      *string  `json:"container"`
	ShipmentID     *string  `json:"shipment_id"`
	OrderID        *string  `json:"order_id"`
	TruckID        *string  `json:"truck_id"`
	Date           *string  `json:"date"`
	AmountGBP      *float64 `json:"amount_gbp"`
	MissingField   *string  `json:"missing_field"`
	KeywordHits    []string `json:"keyword_hits"`
	MatchedStrings []string `json:"matched_strings"`
}

// HasKeyword reports whether kw was recorded as a vocabulary hit.
func (e *Extracted) HasKeyword(kw string) bool {
	for _, h := range e.KeywordHits {
		if h == kw {
			return true
		}
	}
	return false
}

var (
	containerRe    = regexp.MustCompile(`[A-Z]{3}[0-9]{3,}`)
	shipmentRe     = regexp.MustCompile(`(?i)shipment\s*([0-9]{5})|\b([0-9]{5})\b`)
	orderRe        = regexp.MustCompile(`(?i)order\s*([0-9]{5})|#([0-9]{5})`)
	truckRe        = regexp.MustCompile(`(?i)truck\s*([0-9]{1,6})`)
	dateRe         = regexp.MustCompile(`(?i)\b20\s?Feb(?:ruary)?\b`)
	moneyRe        = regexp.MustCompile(`£\s?([0-9,]+(?:\.[0-9]+)?)`)
	missingFieldRe = regexp.MustCompile(`(?i)HS code`)
)

// missingFieldName is the compliance field whose absence customs flags.
const missingFieldName = "HS code"

// vocabulary is the fixed keyword list tested against every message, in
// recording order. Hits are independent of entity extraction.
var vocabulary = []string{
	"customs hold",
	"hold",
	"missing hs code",
	"temperature excursion",
	"pharmaceuticals",
	"urgent",
	"request booking",
	"booking",
	"20 ft",
	"lcl",
	"fcl",
	"invoice",
	"discrepancy",
	"overcharged",
	"£",
	"eta",
	"pod",
	"update",
	"expedite",
	"complaining",
	"cold chain",
	"hazmat",
	"late again",
}

// Entities scans the message and returns the first qualifying match per
// entity type. The first match in scan order is authoritative even when a
// later occurrence would be a better fit; a bare 5-digit number counts as a
// shipment id when no explicit "shipment" phrase precedes it.
func Entities(m *mail.Message) *Extracted {
	text := m.Text()
	out := &Extracted{
		KeywordHits:    []string{},
		MatchedStrings: []string{},
	}

	if c := containerRe.FindString(text); c != "" {
		out.Container = &c
		out.MatchedStrings = append(out.MatchedStrings, c)
	}

	if sm := shipmentRe.FindStringSubmatch(text); sm != nil {
		id := sm[1]
		if id == "" {
			id = sm[2]
		}
		if id != "" {
			out.ShipmentID = &id
			out.MatchedStrings = append(out.MatchedStrings, "shipment "+id)
		}
	}

	if om := orderRe.FindStringSubmatch(text); om != nil {
		id := om[1]
		if id == "" {
			id = om[2]
		}
		if id != "" {
			out.OrderID = &id
			out.MatchedStrings = append(out.MatchedStrings, "order "+id)
		}
	}

	if tm := truckRe.FindStringSubmatch(text); tm != nil && tm[1] != "" {
		id := tm[1]
		out.TruckID = &id
		out.MatchedStrings = append(out.MatchedStrings, "truck "+id)
	}

	if d := dateRe.FindString(text); d != "" {
		out.Date = &d
		out.MatchedStrings = append(out.MatchedStrings, d)
	}

	if mm := moneyRe.FindStringSubmatch(text); mm != nil {
		raw := strings.ReplaceAll(mm[1], ",", "")
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			out.AmountGBP = &amount
			out.MatchedStrings = append(out.MatchedStrings, "£"+raw)
		}
	}

	if missingFieldRe.MatchString(text) {
		mf := missingFieldName
		out.MissingField = &mf
		out.MatchedStrings = append(out.MatchedStrings, missingFieldName)
	}

	lower := strings.ToLower(text)
	for _, kw := range vocabulary {
		if strings.Contains(lower, kw) {
			out.KeywordHits = append(out.KeywordHits, kw)
		}
	}

	return out
}
