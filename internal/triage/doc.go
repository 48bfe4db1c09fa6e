// Package triage is the business boundary for OpsInbox's message
// processing pipeline. It defines the Engine (pure per-message run:
// extraction, classification, urgency, routing, response generation, audit),
// the Service (batch orchestration, persistence, notification dispatch),
// the Store interface for audit events, and the domain result model.
package triage
