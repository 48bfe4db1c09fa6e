// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/opsinbox/internal/audit"
	"github.com/linnemanlabs/opsinbox/internal/route"
)

var tracer = otel.Tracer("github.com/linnemanlabs/opsinbox/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists audit events in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store over the given pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const eventColumns = `id, ts, message_id, received_ts, subject, extracted, classification,
	urgency, rules_applied, route_outcome, automation_allowed, escalated_to,
	customer_hash, internal_hash, logged_by`

// Put upserts an audit event. Re-running the same day and sequence
// overwrites the prior event under the same id.
func (s *Store) Put(ctx context.Context, ev *audit.Event) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	extracted, err := json.Marshal(ev.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted: %w", err)
	}
	classification, err := json.Marshal(ev.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	urgency, err := json.Marshal(ev.Urgency)
	if err != nil {
		return fmt.Errorf("marshal urgency: %w", err)
	}
	rules, err := json.Marshal(ev.RulesApplied)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	query := `INSERT INTO audit_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			ts = EXCLUDED.ts,
			message_id = EXCLUDED.message_id,
			received_ts = EXCLUDED.received_ts,
			subject = EXCLUDED.subject,
			extracted = EXCLUDED.extracted,
			classification = EXCLUDED.classification,
			urgency = EXCLUDED.urgency,
			rules_applied = EXCLUDED.rules_applied,
			route_outcome = EXCLUDED.route_outcome,
			automation_allowed = EXCLUDED.automation_allowed,
			escalated_to = EXCLUDED.escalated_to,
			customer_hash = EXCLUDED.customer_hash,
			internal_hash = EXCLUDED.internal_hash,
			logged_by = EXCLUDED.logged_by`

	_, err = s.pool.Exec(ctx, query,
		ev.ID, ev.Timestamp, ev.MessageID, ev.ReceivedAt, ev.Subject,
		extracted, classification, urgency, rules,
		string(ev.RouteOutcome), ev.AutomationAllowed, ev.EscalatedTo,
		ev.Outputs.CustomerResponseHash, ev.Outputs.InternalSummaryHash, ev.LoggedBy,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Get retrieves an audit event by ID.
func (s *Store) Get(ctx context.Context, id string) (*audit.Event, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + eventColumns + ` FROM audit_events WHERE id = $1`
	ev, err := scanEvent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	return ev, true, nil
}

// List returns all audit events ordered by record timestamp, then id.
func (s *Store) List(ctx context.Context) ([]*audit.Event, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + eventColumns + ` FROM audit_events ORDER BY ts, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []*audit.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

func scanEvent(row pgx.Row) (*audit.Event, error) {
	var (
		ev             audit.Event
		extracted      []byte
		classification []byte
		urgency        []byte
		rules          []byte
		outcome        string
	)
	err := row.Scan(
		&ev.ID, &ev.Timestamp, &ev.MessageID, &ev.ReceivedAt, &ev.Subject,
		&extracted, &classification, &urgency, &rules,
		&outcome, &ev.AutomationAllowed, &ev.EscalatedTo,
		&ev.Outputs.CustomerResponseHash, &ev.Outputs.InternalSummaryHash, &ev.LoggedBy,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(extracted, &ev.Extracted); err != nil {
		return nil, fmt.Errorf("unmarshal extracted: %w", err)
	}
	if err := json.Unmarshal(classification, &ev.Classification); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}
	if err := json.Unmarshal(urgency, &ev.Urgency); err != nil {
		return nil, fmt.Errorf("unmarshal urgency: %w", err)
	}
	if err := json.Unmarshal(rules, &ev.RulesApplied); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	ev.RouteOutcome = route.Outcome(outcome)
	return &ev, nil
}
