// Package audit assembles the durable, hash-anchored record of a message's
// full processing trace. Events carry one-way hashes of the generated
// texts, never the texts themselves, so a reviewer can verify tampering
// without the record duplicating sensitive content.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/mail"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

// LoggedBy is the fixed system-identity tag stamped on every event.
const LoggedBy = "OpsInbox.Pipeline"

// Outputs holds the content hashes of the two generated texts.
type Outputs struct {
	CustomerResponseHash string `json:"customer_response_hash"`
	InternalSummaryHash  string `json:"internal_summary_hash"`
}

// Event is the audit record for one processed message.
type Event struct {
	ID                string                  `json:"audit_event_id"`
	Timestamp         time.Time               `json:"timestamp"`
	MessageID         string                  `json:"message_id"`
	ReceivedAt        time.Time               `json:"received_ts"`
	Subject           string                  `json:"subject"`
	Extracted         *extract.Extracted      `json:"extracted_entities"`
	Classification    classify.Classification `json:"classification"`
	Urgency           classify.Assessment     `json:"sentiment"`
	RulesApplied      []string                `json:"rules_applied"`
	RouteOutcome      route.Outcome           `json:"route_outcome"`
	AutomationAllowed bool                    `json:"automation_allowed"`
	EscalatedTo       *string                 `json:"escalated_to"`
	Outputs           Outputs                 `json:"outputs"`
	LoggedBy          string                  `json:"logged_by"`
}

// Input is everything an event snapshots, including the raw generated texts
// that are hashed and discarded.
type Input struct {
	Seq              int
	Message          *mail.Message
	Extracted        *extract.Extracted
	Classification   classify.Classification
	Urgency          classify.Assessment
	Routing          route.Decision
	CustomerResponse string
	InternalSummary  string
}

// NewEvent builds the audit event for one pipeline run. Seq is the
// message's 1-based position in the processing run; ids are date-prefixed
// and zero-padded so they sort chronologically within a day.
func NewEvent(in Input) *Event {
	now := time.Now().UTC()
	return newEventAt(in, now)
}

func newEventAt(in Input, now time.Time) *Event {
	return &Event{
		ID:                fmt.Sprintf("INBOX-%s-%03d", now.Format("2006-01-02"), in.Seq),
		Timestamp:         now,
		MessageID:         in.Message.ID,
		ReceivedAt:        in.Message.ReceivedAt,
		Subject:           in.Message.Subject,
		Extracted:         in.Extracted,
		Classification:    in.Classification,
		Urgency:           in.Urgency,
		RulesApplied:      in.Routing.Rules,
		RouteOutcome:      in.Routing.Outcome,
		AutomationAllowed: in.Routing.AutomationAllowed,
		EscalatedTo:       in.Routing.EscalatedTo,
		Outputs: Outputs{
			CustomerResponseHash: HashText(in.CustomerResponse),
			InternalSummaryHash:  HashText(in.InternalSummary),
		},
		LoggedBy: LoggedBy,
	}
}

// HashText returns the hex SHA-256 digest of s. Deterministic for
// identical text, so re-processing the same message yields the same
// output hashes.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
