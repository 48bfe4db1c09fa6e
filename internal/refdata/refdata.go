// Package refdata loads the static reference collections the pipeline
// cross-references: shipments, orders, invoices, the compliance HS-code
// table, and the demo inbox. Fixtures are embedded YAML parsed once at
// startup; the resulting Set is read-only.
package refdata

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/opsinbox/internal/mail"
)

//go:embed shipments.yaml
var shipmentsYAML []byte

//go:embed orders.yaml
var ordersYAML []byte

//go:embed invoices.yaml
var invoicesYAML []byte

//go:embed compliance.yaml
var complianceYAML []byte

//go:embed inbox.yaml
var inboxYAML []byte

// Shipment is a reference shipment record.
type Shipment struct {
	ShipmentID  string `json:"shipment_id" yaml:"shipment_id"`
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
	CargoType   string `json:"cargo_type" yaml:"cargo_type"`
	Status      string `json:"status" yaml:"status"`
}

// Held reports whether the shipment is under a customs or compliance hold.
func (s *Shipment) Held() bool { return s.Status == "held" }

// Order is a reference order record.
type Order struct {
	OrderID      string `json:"order_id" yaml:"order_id"`
	Customer     string `json:"customer" yaml:"customer"`
	PODAvailable bool   `json:"pod_available" yaml:"pod_available"`
	PODStatus    string `json:"pod_status" yaml:"pod_status"`
}

// Invoice is a reference invoice record keyed by shipment.
type Invoice struct {
	ShipmentID        string  `json:"shipment_id" yaml:"shipment_id"`
	BilledAmountGBP   float64 `json:"billed_amount_gbp" yaml:"billed_amount_gbp"`
	ExpectedAmountGBP float64 `json:"expected_amount_gbp" yaml:"expected_amount_gbp"`
}

// Compliance holds the recommended HS codes by cargo type.
type Compliance struct {
	HSCodes map[string]string `json:"hs_codes" yaml:"hs_codes"`
}

// Set is the loaded, indexed reference data.
type Set struct {
	Shipments  []Shipment
	Orders     []Order
	Invoices   []Invoice
	Compliance Compliance
	Inbox      []mail.Message

	shipmentByID map[string]*Shipment
	orderByID    map[string]*Order
	invoiceByID  map[string]*Invoice
	messageByID  map[string]*mail.Message
	messagePos   map[string]int
}

// Load parses the embedded fixtures and builds the lookup indexes.
func Load() (*Set, error) {
	s := &Set{}

	if err := yaml.Unmarshal(shipmentsYAML, &s.Shipments); err != nil {
		return nil, fmt.Errorf("parse shipments: %w", err)
	}
	if err := yaml.Unmarshal(ordersYAML, &s.Orders); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}
	if err := yaml.Unmarshal(invoicesYAML, &s.Invoices); err != nil {
		return nil, fmt.Errorf("parse invoices: %w", err)
	}
	if err := yaml.Unmarshal(complianceYAML, &s.Compliance); err != nil {
		return nil, fmt.Errorf("parse compliance: %w", err)
	}
	if err := yaml.Unmarshal(inboxYAML, &s.Inbox); err != nil {
		return nil, fmt.Errorf("parse inbox: %w", err)
	}

	s.shipmentByID = make(map[string]*Shipment, len(s.Shipments))
	for i := range s.Shipments {
		s.shipmentByID[s.Shipments[i].ShipmentID] = &s.Shipments[i]
	}
	s.orderByID = make(map[string]*Order, len(s.Orders))
	for i := range s.Orders {
		s.orderByID[s.Orders[i].OrderID] = &s.Orders[i]
	}
	s.invoiceByID = make(map[string]*Invoice, len(s.Invoices))
	for i := range s.Invoices {
		s.invoiceByID[s.Invoices[i].ShipmentID] = &s.Invoices[i]
	}
	s.messageByID = make(map[string]*mail.Message, len(s.Inbox))
	s.messagePos = make(map[string]int, len(s.Inbox))
	for i := range s.Inbox {
		s.messageByID[s.Inbox[i].ID] = &s.Inbox[i]
		s.messagePos[s.Inbox[i].ID] = i + 1
	}

	return s, nil
}

// Shipment looks up a shipment by id.
func (s *Set) Shipment(id string) (*Shipment, bool) {
	sh, ok := s.shipmentByID[id]
	return sh, ok
}

// Order looks up an order by id.
func (s *Set) Order(id string) (*Order, bool) {
	o, ok := s.orderByID[id]
	return o, ok
}

// Invoice looks up an invoice by its shipment id.
func (s *Set) Invoice(shipmentID string) (*Invoice, bool) {
	inv, ok := s.invoiceByID[shipmentID]
	return inv, ok
}

// Message looks up an inbox message by id.
func (s *Set) Message(id string) (*mail.Message, bool) {
	m, ok := s.messageByID[id]
	return m, ok
}

// MessagePosition returns the 1-based inbox position of a message id.
// Positions are stable regardless of processing scope.
func (s *Set) MessagePosition(id string) (int, bool) {
	pos, ok := s.messagePos[id]
	return pos, ok
}

// HSCode returns the recommended HS code for a cargo type, if known.
func (s *Set) HSCode(cargoType string) (string, bool) {
	code, ok := s.Compliance.HSCodes[cargoType]
	return code, ok
}
