// Package mail defines the inbound operational message model.
package mail

import (
	"strings"
	"time"
)

// Message is a single inbound operational email. Messages are immutable
// inputs to the pipeline; missing subject or body is treated as empty.
type Message struct {
	ID         string    `json:"message_id" yaml:"message_id"`
	ReceivedAt time.Time `json:"received_ts" yaml:"received_ts"`
	From       string    `json:"from" yaml:"from"`
	Subject    string    `json:"subject" yaml:"subject"`
	Body       string    `json:"body" yaml:"body"`
}

// Text returns the scanning buffer used by extraction: subject and body
// joined by a newline.
func (m *Message) Text() string {
	return m.Subject + "\n" + m.Body
}

// LowerText returns the lowercased subject and body joined by a space,
// the buffer that keyword classification and urgency scoring scan.
func (m *Message) LowerText() string {
	return strings.ToLower(m.Subject + " " + m.Body)
}
