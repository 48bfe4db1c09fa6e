package triage

import (
	"context"

	"github.com/linnemanlabs/opsinbox/internal/audit"
)

// Store is the persistence interface for audit events, the only pipeline
// artifact that outlives a processing run.
type Store interface {
	Put(ctx context.Context, ev *audit.Event) error
	Get(ctx context.Context, id string) (*audit.Event, bool, error)
	List(ctx context.Context) ([]*audit.Event, error)
}
