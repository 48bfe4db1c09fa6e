// Package respond produces the customer-facing response and internal
// summary for a triaged message. An external generative provider is
// preferred when configured; any provider failure degrades silently to a
// deterministic template, tagged by provenance so callers can tell the two
// apart.
package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/mail"
	"github.com/linnemanlabs/opsinbox/internal/refdata"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

// Provider is the interface for the external generative-text backend.
type Provider interface {
	// Complete sends a single prompt and returns the raw reply text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Model identifies the backing model for audit and logging.
	Model() string
}

// Source tags where a response came from.
type Source string

const (
	SourceTemplate Source = "template"
	SourceLLM      Source = "llm"
)

// Response is the generated output for one message. It is always usable:
// the generator never returns an error to its caller.
type Response struct {
	CustomerResponse string `json:"customer_response"`
	InternalSummary  string `json:"internal_summary"`
	Source           Source `json:"source"`
	Model            string `json:"model,omitempty"`
}

// Input carries the full upstream context into generation.
type Input struct {
	Message        *mail.Message
	Extracted      *extract.Extracted
	Classification classify.Classification
	Urgency        classify.Assessment
	Routing        route.Decision
}

// Generator produces responses, preferring the provider and falling back to
// templates. Concurrent provider calls are bounded by a semaphore so a
// large batch cannot overwhelm the external service.
type Generator struct {
	ref      *refdata.Set
	provider Provider // nil means template-only
	timeout  time.Duration
	sem      chan struct{}
	logger   log.Logger

	// OnLLMCall, when set, observes every provider call (for metrics).
	OnLLMCall func(duration time.Duration, failed bool)
}

// New creates a Generator. provider may be nil to disable the external
// service; maxConcurrent bounds in-flight provider calls.
func New(ref *refdata.Set, provider Provider, timeout time.Duration, maxConcurrent int, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.Nop()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Generator{
		ref:      ref,
		provider: provider,
		timeout:  timeout,
		sem:      make(chan struct{}, maxConcurrent),
		logger:   logger,
	}
}

// Generate returns a response for the message. The external path is the
// single fallible operation in the pipeline; network errors, timeouts, and
// malformed replies all collapse into the template path with a warning.
func (g *Generator) Generate(ctx context.Context, in Input) Response {
	customer, internal := templates(g.ref, in.Classification.Category, in.Routing.Outcome, in.Extracted)
	fallback := Response{
		CustomerResponse: customer,
		InternalSummary:  internal,
		Source:           SourceTemplate,
	}

	if g.provider == nil {
		return fallback
	}

	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.provider.Complete(callCtx, buildPrompt(in))
	elapsed := time.Since(start)

	if err != nil {
		g.observe(elapsed, true)
		g.logger.Warn(ctx, "generation failed, falling back to template",
			"message_id", in.Message.ID,
			"model", g.provider.Model(),
			"error", err,
		)
		return fallback
	}

	parsed, err := parseReply(raw)
	if err != nil {
		g.observe(elapsed, true)
		g.logger.Warn(ctx, "generation reply unusable, falling back to template",
			"message_id", in.Message.ID,
			"model", g.provider.Model(),
			"error", err,
		)
		return fallback
	}

	g.observe(elapsed, false)
	return Response{
		CustomerResponse: parsed.CustomerResponse,
		InternalSummary:  parsed.InternalSummary,
		Source:           SourceLLM,
		Model:            g.provider.Model(),
	}
}

func (g *Generator) observe(d time.Duration, failed bool) {
	if g.OnLLMCall != nil {
		g.OnLLMCall(d, failed)
	}
}

// buildPrompt assembles the fixed-structure prompt: role framing, every
// upstream fact, and the instruction to return exactly two named fields.
func buildPrompt(in Input) string {
	extracted, _ := json.Marshal(in.Extracted)

	escalated := "none"
	if in.Routing.EscalatedTo != nil {
		escalated = *in.Routing.EscalatedTo
	}

	lines := []string{
		"You are an operations inbox assistant.",
		"Generate a customer-facing response and an internal summary.",
		"Be concise, professional, and avoid hallucinations.",
		"Use only the provided facts. No markdown.",
		"",
		"Email from: " + in.Message.From,
		"Received: " + in.Message.ReceivedAt.Format(time.RFC3339),
		"Subject: " + in.Message.Subject,
		"Body: " + in.Message.Body,
		"Category: " + string(in.Classification.Category),
		fmt.Sprintf("Confidence: %g", in.Classification.Confidence),
		"Sentiment: " + string(in.Urgency.Sentiment),
		fmt.Sprintf("Urgency score: %d", in.Urgency.UrgencyScore),
		"Route: " + string(in.Routing.Outcome),
		"Escalated to: " + escalated,
		"Extracted entities: " + string(extracted),
		"",
		"Return a JSON object with keys:",
		`"customer_response" and "internal_summary".`,
		"Do not include any other text.",
	}
	return strings.Join(lines, "\n")
}

type reply struct {
	CustomerResponse string `json:"customer_response"`
	InternalSummary  string `json:"internal_summary"`
}

// parseReply decodes the provider reply as a strict two-field object. A
// reply that is not JSON or is missing either field is a failure.
func parseReply(raw string) (*reply, error) {
	var r reply
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if r.CustomerResponse == "" || r.InternalSummary == "" {
		return nil, fmt.Errorf("reply missing required fields")
	}
	return &r, nil
}
