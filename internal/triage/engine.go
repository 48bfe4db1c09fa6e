package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/opsinbox/internal/audit"
	"github.com/linnemanlabs/opsinbox/internal/classify"
	"github.com/linnemanlabs/opsinbox/internal/extract"
	"github.com/linnemanlabs/opsinbox/internal/mail"
	"github.com/linnemanlabs/opsinbox/internal/respond"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

// EngineHooks observe pipeline runs. Nil funcs are skipped.
type EngineHooks struct {
	OnResult func(r *Result, duration time.Duration)
}

// Engine runs the per-message pipeline. It holds no mutable state; runs
// for distinct messages are independent and safe to execute in parallel.
type Engine struct {
	router *route.Router
	gen    *respond.Generator
	logger log.Logger
	hooks  EngineHooks
}

// NewEngine creates a pipeline engine with the given dependencies.
func NewEngine(router *route.Router, gen *respond.Generator, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		router: router,
		gen:    gen,
		logger: logger,
		hooks:  hooks,
	}
}

// Run processes one message through every stage and returns the complete
// result. seq is the message's 1-based position in the processing run and
// determines the audit event identifier. Run never fails: the only
// fallible stage degrades internally to its template path.
func (e *Engine) Run(ctx context.Context, seq int, m *mail.Message) *Result {
	start := time.Now()

	extracted := extract.Entities(m)
	cls := classify.Classify(m)
	urg := classify.Urgency(m, extracted)
	decision := e.router.Decide(cls, urg, extracted)

	resp := e.gen.Generate(ctx, respond.Input{
		Message:        m,
		Extracted:      extracted,
		Classification: cls,
		Urgency:        urg,
		Routing:        decision,
	})

	ev := audit.NewEvent(audit.Input{
		Seq:              seq,
		Message:          m,
		Extracted:        extracted,
		Classification:   cls,
		Urgency:          urg,
		Routing:          decision,
		CustomerResponse: resp.CustomerResponse,
		InternalSummary:  resp.InternalSummary,
	})

	result := &Result{
		MessageID:         m.ID,
		Category:          cls.Category,
		Confidence:        cls.Confidence,
		Sentiment:         urg.Sentiment,
		UrgencyScore:      urg.UrgencyScore,
		RouteOutcome:      decision.Outcome,
		EscalatedTo:       decision.EscalatedTo,
		AutomationAllowed: decision.AutomationAllowed,
		CustomerResponse:  resp.CustomerResponse,
		InternalSummary:   resp.InternalSummary,
		ResponseSource:    resp.Source,
		Reasoning: Reasoning{
			Extracted:      extracted,
			Classification: cls,
			Urgency:        urg,
			Routing:        decision,
		},
		Audit: ev,
	}

	elapsed := time.Since(start)
	e.logger.Info(ctx, "message processed",
		"message_id", m.ID,
		"category", cls.Category,
		"confidence", cls.Confidence,
		"urgency", urg.UrgencyScore,
		"sentiment", urg.Sentiment,
		"route", decision.Outcome,
		"source", resp.Source,
		"audit_event_id", ev.ID,
		"duration", elapsed.Seconds(),
	)

	if e.hooks.OnResult != nil {
		e.hooks.OnResult(result, elapsed)
	}

	return result
}
