// Package route turns a classification, urgency assessment, and extracted
// entities into a deterministic routing decision. The decision table is
// keyed by category; condition checks within a category run top to bottom
// and the first match wins.
package route

import (
	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/refdata"
)

// Outcome is the handling decision for a message.
type Outcome string

const (
	OutcomeAutoReply        Outcome = "auto_reply"
	OutcomeDraftForApproval Outcome = "draft_for_approval"
	OutcomeEscalate         Outcome = "escalate"
)

// Escalation targets.
const (
	TargetComplianceOfficer = "Compliance Officer"
	TargetOpsLead           = "Ops Lead"
	TargetOpsManager        = "Ops Manager"
	TargetFinance           = "Finance"
)

// amountThresholdGBP mirrors the urgency threshold: billing messages above
// it escalate to Finance.
const amountThresholdGBP = 100

// Decision is the routing outcome for one message. EscalatedTo is nil
// unless Outcome is escalate; AutomationAllowed is true only for
// unsupervised auto replies. Rules records the fired rule labels in
// evaluation order for the audit trail.
type Decision struct {
	Outcome           Outcome  `json:"route_outcome"`
	EscalatedTo       *string  `json:"escalated_to"`
	AutomationAllowed bool     `json:"automation_allowed"`
	Rules             []string `json:"rules_applied"`
}

// Router evaluates the routing decision table. It cross-references the
// read-only reference data for flagged (held) shipments.
type Router struct {
	ref *refdata.Set
}

// New creates a Router over the given reference data.
func New(ref *refdata.Set) *Router {
	return &Router{ref: ref}
}

// heldShipmentReferenced reports whether the message references a shipment
// currently under hold.
func (r *Router) heldShipmentReferenced(ex *extract.Extracted) bool {
	if ex.ShipmentID == nil {
		return false
	}
	sh, ok := r.ref.Shipment(*ex.ShipmentID)
	return ok && sh.Held()
}

// Decide maps the upstream results onto a routing decision. It is pure and
// never fails.
func (r *Router) Decide(cls classify.Classification, urg classify.Assessment, ex *extract.Extracted) Decision {
	d := Decision{Outcome: OutcomeEscalate}

	switch cls.Category {
	case classify.CategoryException:
		d.Outcome = OutcomeEscalate
		switch {
		case ex.HasKeyword("customs hold") || r.heldShipmentReferenced(ex):
			d.escalate(TargetComplianceOfficer, "exception.customs_hold")
		case ex.HasKeyword("temperature excursion") || ex.HasKeyword("pharmaceuticals"):
			d.escalate(TargetOpsLead, "exception.cold_chain")
		default:
			d.escalate(TargetOpsLead, "exception.default")
		}

	case classify.CategoryBilling:
		d.Outcome = OutcomeDraftForApproval
		d.Rules = append(d.Rules, "billing.draft")
		overThreshold := ex.AmountGBP != nil && *ex.AmountGBP > amountThresholdGBP
		if overThreshold {
			d.Outcome = OutcomeEscalate
			d.escalate(TargetFinance, "billing.amount_threshold")
		}
		if ex.MissingField != nil {
			d.Outcome = OutcomeEscalate
			d.escalate(TargetFinance, "billing.missing_field")
		}

	case classify.CategoryBooking:
		d.Outcome = OutcomeDraftForApproval
		d.Rules = append(d.Rules, "booking.draft")
		if ex.HasKeyword("pharmaceuticals") || ex.HasKeyword("cold chain") || ex.HasKeyword("hazmat") {
			d.Outcome = OutcomeEscalate
			d.escalate(TargetOpsLead, "booking.special_cargo")
		}

	case classify.CategoryTracking:
		if urg.UrgencyScore < 60 && urg.Sentiment != classify.SentimentNegative {
			d.Outcome = OutcomeAutoReply
			d.AutomationAllowed = true
			d.Rules = append(d.Rules, "tracking.auto_reply")
		} else {
			d.Outcome = OutcomeDraftForApproval
			d.Rules = append(d.Rules, "tracking.draft")
			if urg.Sentiment == classify.SentimentNegative || ex.HasKeyword("late again") {
				d.Outcome = OutcomeEscalate
				d.escalate(TargetOpsManager, "tracking.repeat_complaint")
			}
		}

	default:
		d.Outcome = OutcomeEscalate
		d.escalate(TargetOpsManager, "unknown.manual_triage")
	}

	return d
}

func (d *Decision) escalate(target, rule string) {
	t := target
	d.EscalatedTo = &t
	d.Rules = append(d.Rules, rule)
}
