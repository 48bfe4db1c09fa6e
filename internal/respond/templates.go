package respond

import (
	"strconv"

	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/refdata"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

// templates produces the deterministic fallback response for a category,
// with extracted values interpolated. The prefix distinguishes a fully
// automated reply (AUTO) from one awaiting human review (DRAFT).
func templates(ref *refdata.Set, category classify.Category, outcome route.Outcome, ex *extract.Extracted) (customer, internal string) {
	label := "DRAFT"
	if outcome == route.OutcomeAutoReply {
		label = "AUTO"
	}

	switch category {
	case classify.CategoryException:
		if ex.MissingField != nil || heldShipmentReferenced(ref, ex) {
			code, _ := ref.HSCode("pharmaceuticals")
			customer = label + ": We are investigating the customs hold due to missing HS code. Our team will update you within 4 hours with the HS code required and next steps."
			internal = "Customs hold reported; missing HS code detected. Recommended HS code: " + code +
				". Risk: potential demurrage. Notify Finance for potential costs and Compliance Officer to clear."
		} else if ex.HasKeyword("temperature excursion") || ex.HasKeyword("pharmaceuticals") {
			customer = label + ": We have flagged a temperature excursion and our operations team is investigating. We will provide next steps within 2 hours."
			internal = "Temperature excursion reported (truck " + orNA(ex.TruckID) + "). Initiate containment checks, quarantine if required, and notify Ops Lead."
		} else {
			customer = label + ": We have received your exception report and will investigate with urgency."
			internal = "Exception received; investigate and escalate as per policy."
		}

	case classify.CategoryBilling:
		customer = label + ": Thank you; we are reviewing the invoice discrepancy and will revert with corrections or credit note."
		internal = "Invoice discrepancy detected; billed " + amountOrNA(ex.AmountGBP) + " GBP vs expected. Recommend Finance review and prepare action."

	case classify.CategoryBooking:
		customer = label + ": Booking request received for " + orDefault(ex.Date, "requested date") + ". We will confirm space, rate, and documentation."
		internal = "Booking requested; origin/destination to be confirmed. Confirm availability for date " + orNA(ex.Date) + "."

	case classify.CategoryTracking:
		customer = label + ": Thank you for your enquiry. We are checking status and will send an ETA as soon as possible."
		internal = "Tracking enquiry; action: check container " + orNA(ex.Container) + " and provide ETA."

	default:
		customer = label + ": Thank you. We have received the enquiry and will investigate."
		internal = "Unknown category; manual triage required."
	}

	return customer, internal
}

func heldShipmentReferenced(ref *refdata.Set, ex *extract.Extracted) bool {
	if ex.ShipmentID == nil {
		return false
	}
	sh, ok := ref.Shipment(*ex.ShipmentID)
	return ok && sh.Held()
}

func orNA(s *string) string {
	return orDefault(s, "N/A")
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func amountOrNA(a *float64) string {
	if a == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*a, 'f', -1, 64)
}
