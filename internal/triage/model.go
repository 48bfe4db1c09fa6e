package triage

import (
	"github.com/linnemanlabs/opsinbox/internal/audit"
	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/respond"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

// Reasoning is the full decision trace for one message.
type Reasoning struct {
	Extracted      *extract.Extracted      `json:"extracted_entities"`
	Classification classify.Classification `json:"classification"`
	Urgency        classify.Assessment     `json:"urgency"`
	Routing        route.Decision          `json:"routing"`
}

// Result is the complete outcome of one pipeline run. Everything but the
// audit event is ephemeral; the audit event is the durable artifact.
type Result struct {
	MessageID         string            `json:"message_id"`
	Category          classify.Category `json:"category"`
	Confidence        float64           `json:"confidence"`
	Sentiment         classify.Sentiment `json:"sentiment"`
	UrgencyScore      int               `json:"urgency_score"`
	RouteOutcome      route.Outcome     `json:"route_outcome"`
	EscalatedTo       *string           `json:"escalated_to"`
	AutomationAllowed bool              `json:"automation_allowed"`
	CustomerResponse  string            `json:"customer_response"`
	InternalSummary   string            `json:"internal_summary"`
	ResponseSource    respond.Source    `json:"response_source"`
	Reasoning         Reasoning         `json:"reasoning"`
	Audit             *audit.Event      `json:"audit_event"`
}

// Escalated reports whether the message was routed to a named escalation
// target.
func (r *Result) Escalated() bool {
	return r.RouteOutcome == route.OutcomeEscalate && r.EscalatedTo != nil
}
