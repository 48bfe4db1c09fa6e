// Package inboxapi exposes the batch processing entry point and audit
// lookups over HTTP.
package inboxapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/opsinbox/internal/audit"
	"github.com/linnemanlabs/opsinbox/internal/mail"
	"github.com/linnemanlabs/opsinbox/internal/triage"
)

// TriageService defines the business operations inboxapi needs.
type TriageService interface {
	Process(ctx context.Context, scope string) (*triage.Run, error)
	Messages() []*mail.Message
	AuditEvent(ctx context.Context, id string) (*audit.Event, bool, error)
	AuditEvents(ctx context.Context) ([]*audit.Event, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/inbox", a.handleListInbox)
		r.Post("/inbox/process", a.handleProcess)
		r.Get("/audit", a.handleListAudit)
		r.Get("/audit/{id}", a.handleGetAudit)
	})
}

type processRequest struct {
	Scope string `json:"scope"`
}

func (a *API) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.Scope == "" {
		req.Scope = triage.ScopeAll
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("opsinbox.process.scope", req.Scope))

	run, err := a.svc.Process(r.Context(), req.Scope)
	if err != nil {
		a.logger.Warn(r.Context(), "process request rejected", "scope", req.Scope, "error", err)
		http.Error(w, `{"error":"unknown message id"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(
		attribute.String("opsinbox.run.id", run.RunID),
		attribute.Int("opsinbox.run.messages", len(run.Results)),
	)

	writeJSON(w, http.StatusOK, run)
}

func (a *API) handleListInbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": a.svc.Messages(),
	})
}

func (a *API) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("opsinbox.audit.id", id))

	ev, ok, err := a.svc.AuditEvent(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get audit event", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

func (a *API) handleListAudit(w http.ResponseWriter, r *http.Request) {
	events, err := a.svc.AuditEvents(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list audit events")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
