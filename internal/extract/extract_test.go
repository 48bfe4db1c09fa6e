package extract

import (
	"reflect"
	"testing"
	"time"

	"github.com/linnemanlabs/opsinbox/internal/mail"
)

func msg(subject, body string) *mail.Message {
	return &mail.Message{
		ID:         "m-test",
		ReceivedAt: time.Date(2026, 1, 30, 9, 0, 0, 0, time.UTC),
		From:       "ops@example.com",
		Subject:    subject,
		Body:       body,
	}
}

func TestEntities_CustomsHoldMessage(t *testing.T) {
	t.Parallel()

	m := msg(
		"URGENT: Customs hold on 55321 due to missing HS code.",
		"Customs have placed a hold on shipment 55321 due to missing HS code information. We need this resolved ASAP to avoid demurrage and further delays.",
	)
	got := Entities(m)

	if got.ShipmentID == nil || *got.ShipmentID != "55321" {
		t.Fatalf("ShipmentID = %v, want 55321", got.ShipmentID)
	}
	if got.MissingField == nil || *got.MissingField != "HS code" {
		t.Errorf("MissingField = %v, want HS code", got.MissingField)
	}
	if got.Container != nil {
		t.Errorf("Container = %q, want nil", *got.Container)
	}
	if got.AmountGBP != nil {
		t.Errorf("AmountGBP = %v, want nil", *got.AmountGBP)
	}

	wantHits := []string{"customs hold", "hold", "missing hs code", "urgent"}
	if !reflect.DeepEqual(got.KeywordHits, wantHits) {
		t.Errorf("KeywordHits = %v, want %v", got.KeywordHits, wantHits)
	}
	wantMatched := []string{"shipment 55321", "HS code"}
	if !reflect.DeepEqual(got.MatchedStrings, wantMatched) {
		t.Errorf("MatchedStrings = %v, want %v", got.MatchedStrings, wantMatched)
	}
}

func TestEntities_Container(t *testing.T) {
	t.Parallel()

	got := Entities(msg("Container ABC123 – ETA update?", "Can you confirm the ETA for container ABC123?"))
	if got.Container == nil || *got.Container != "ABC123" {
		t.Fatalf("Container = %v, want ABC123", got.Container)
	}
	if got.ShipmentID != nil {
		t.Errorf("ShipmentID = %q, want nil", *got.ShipmentID)
	}
}

// A bare 5-digit number anywhere in the text is taken as a shipment id
// when it is the first match in scan order, even with an explicit
// "shipment" phrase later. The earliest match is authoritative.
func TestEntities_BareFiveDigitWinsByScanOrder(t *testing.T) {
	t.Parallel()

	got := Entities(msg("Ref 11111 update", "Please check shipment 22222 as well."))
	if got.ShipmentID == nil || *got.ShipmentID != "11111" {
		t.Fatalf("ShipmentID = %v, want 11111 (first match in scan order)", got.ShipmentID)
	}
}

func TestEntities_ExplicitShipmentPhraseFirst(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", "shipment 33333 is delayed, invoice ref 44444"))
	if got.ShipmentID == nil || *got.ShipmentID != "33333" {
		t.Fatalf("ShipmentID = %v, want 33333", got.ShipmentID)
	}
}

func TestEntities_OrderForms(t *testing.T) {
	t.Parallel()

	hash := Entities(msg("Pls send POD for order #45678.", "Please send the POD for order #45678."))
	if hash.OrderID == nil || *hash.OrderID != "45678" {
		t.Fatalf("OrderID = %v, want 45678", hash.OrderID)
	}

	phrase := Entities(msg("", "Can we expedite order 60347?"))
	if phrase.OrderID == nil || *phrase.OrderID != "60347" {
		t.Fatalf("OrderID = %v, want 60347", phrase.OrderID)
	}
}

func TestEntities_TruckAndDate(t *testing.T) {
	t.Parallel()

	got := Entities(msg(
		"Temperature excursion alert: pharmaceuticals in truck 9918.",
		"Booking departs 20 Feb.",
	))
	if got.TruckID == nil || *got.TruckID != "9918" {
		t.Fatalf("TruckID = %v, want 9918", got.TruckID)
	}
	if got.Date == nil || *got.Date != "20 Feb" {
		t.Fatalf("Date = %v, want 20 Feb", got.Date)
	}
}

func TestEntities_AmountStripsThousandsSeparators(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", "We have been overcharged by £1,300.50 on the invoice."))
	if got.AmountGBP == nil {
		t.Fatal("AmountGBP = nil, want 1300.50")
	}
	if *got.AmountGBP != 1300.50 {
		t.Errorf("AmountGBP = %v, want 1300.50", *got.AmountGBP)
	}

	found := false
	for _, s := range got.MatchedStrings {
		if s == "£1300.50" {
			found = true
		}
	}
	if !found {
		t.Errorf("MatchedStrings = %v, want to contain £1300.50", got.MatchedStrings)
	}
}

func TestEntities_FirstAmountOnly(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", "Billed £300 but expected £200."))
	if got.AmountGBP == nil || *got.AmountGBP != 300 {
		t.Fatalf("AmountGBP = %v, want 300 (first match only)", got.AmountGBP)
	}
}

func TestEntities_EmptyMessage(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", ""))
	if got.Container != nil || got.ShipmentID != nil || got.OrderID != nil ||
		got.TruckID != nil || got.Date != nil || got.AmountGBP != nil || got.MissingField != nil {
		t.Error("expected all entity fields nil for empty message")
	}
	if len(got.KeywordHits) != 0 {
		t.Errorf("KeywordHits = %v, want empty", got.KeywordHits)
	}
	if len(got.MatchedStrings) != 0 {
		t.Errorf("MatchedStrings = %v, want empty", got.MatchedStrings)
	}
}

func TestEntities_KeywordHitsInVocabularyOrder(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", "expedite this booking urgent"))
	want := []string{"urgent", "booking", "expedite"}
	if !reflect.DeepEqual(got.KeywordHits, want) {
		t.Errorf("KeywordHits = %v, want %v (vocabulary order)", got.KeywordHits, want)
	}
}

func TestHasKeyword(t *testing.T) {
	t.Parallel()

	got := Entities(msg("", "late again and complaining"))
	if !got.HasKeyword("late again") {
		t.Error("expected hit for late again")
	}
	if !got.HasKeyword("complaining") {
		t.Error("expected hit for complaining")
	}
	if got.HasKeyword("hazmat") {
		t.Error("unexpected hit for hazmat")
	}
}
