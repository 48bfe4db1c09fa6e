package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/linnemanlabs/opsinbox/internal/audit"
	"github.com/linnemanlabs/opsinbox/internal/mail"
	"github.com/linnemanlabs/opsinbox/internal/refdata"
)

// ScopeAll requests processing of the entire inbox; any other scope value
// names a single message id.
const ScopeAll = "all"

// Notifier delivers escalated results to operators. Implementations must
// tolerate being called concurrently.
type Notifier interface {
	Notify(ctx context.Context, r *Result) error
}

// Run is the outcome of one batch processing request.
type Run struct {
	RunID   string    `json:"run_id"`
	Results []*Result `json:"results"`
}

// Service owns batch orchestration: it resolves the scope against the
// inbox, fans messages out to the engine, persists audit events, and
// dispatches escalation notifications.
type Service struct {
	engine   *Engine
	store    Store
	ref      *refdata.Set
	notifier Notifier // may be nil
	logger   log.Logger

	// OnBatch, when set, observes completed batches (for metrics).
	OnBatch func(size int, duration time.Duration)
}

// NewService creates the triage service.
func NewService(engine *Engine, store Store, ref *refdata.Set, notifier Notifier, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine:   engine,
		store:    store,
		ref:      ref,
		notifier: notifier,
		logger:   logger,
	}
}

// Process runs the pipeline over the requested scope and returns one
// result per message, in inbox order. Messages run in parallel; audit
// sequence numbers come from the message's inbox position, so a given
// message maps to the same same-day event id whether it runs alone or
// in a full batch. External-service concurrency is bounded inside the
// response generator, not here.
func (s *Service) Process(ctx context.Context, scope string) (*Run, error) {
	messages, err := s.resolve(scope)
	if err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	start := time.Now()

	L := s.logger.With("run_id", runID, "scope", scope)
	L.Info(ctx, "processing batch", "messages", len(messages))

	results := make([]*Result, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range messages {
		seq, ok := s.ref.MessagePosition(m.ID)
		if !ok {
			seq = i + 1
		}
		g.Go(func() error {
			r := s.engine.Run(gctx, seq, m)
			results[i] = r

			if err := s.store.Put(gctx, r.Audit); err != nil {
				// the caller still gets the full result record
				L.Error(gctx, err, "failed to persist audit event",
					"audit_event_id", r.Audit.ID, "message_id", r.MessageID)
			}
			return nil
		})
	}
	// engine runs never error; group is used for fan-out and ctx propagation
	_ = g.Wait()

	for _, r := range results {
		s.notify(ctx, L, r)
	}

	elapsed := time.Since(start)
	L.Info(ctx, "batch complete", "messages", len(results), "duration", elapsed.Seconds())
	if s.OnBatch != nil {
		s.OnBatch(len(results), elapsed)
	}

	return &Run{RunID: runID, Results: results}, nil
}

// Messages returns the loaded inbox, in order.
func (s *Service) Messages() []*mail.Message {
	out := make([]*mail.Message, len(s.ref.Inbox))
	for i := range s.ref.Inbox {
		out[i] = &s.ref.Inbox[i]
	}
	return out
}

// AuditEvent retrieves a stored audit event by id.
func (s *Service) AuditEvent(ctx context.Context, id string) (*audit.Event, bool, error) {
	return s.store.Get(ctx, id)
}

// AuditEvents lists all stored audit events in insertion order.
func (s *Service) AuditEvents(ctx context.Context) ([]*audit.Event, error) {
	return s.store.List(ctx)
}

func (s *Service) resolve(scope string) ([]*mail.Message, error) {
	if scope == "" || scope == ScopeAll {
		return s.Messages(), nil
	}
	m, ok := s.ref.Message(scope)
	if !ok {
		return nil, fmt.Errorf("unknown message id %q", scope)
	}
	return []*mail.Message{m}, nil
}

func (s *Service) notify(ctx context.Context, L log.Logger, r *Result) {
	if s.notifier == nil || !r.Escalated() {
		return
	}
	if err := s.notifier.Notify(ctx, r); err != nil {
		L.Error(ctx, err, "escalation notification failed",
			"message_id", r.MessageID, "target", *r.EscalatedTo)
	}
}
