package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/opsinbox/internal/audit"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu     sync.Mutex
	events map[string]*audit.Event
	order  []string
	putErr error
}

func newMockStore() *mockStore {
	return &mockStore{events: make(map[string]*audit.Event)}
}

func (m *mockStore) Put(_ context.Context, ev *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if _, exists := m.events[ev.ID]; !exists {
		m.order = append(m.order, ev.ID)
	}
	cp := *ev
	m.events[ev.ID] = &cp
	return nil
}

func (m *mockStore) Get(_ context.Context, id string) (*audit.Event, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, false, nil
	}
	cp := *ev
	return &cp, true, nil
}

func (m *mockStore) List(_ context.Context) ([]*audit.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*audit.Event, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.events[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// mockNotifier records notified results.
type mockNotifier struct {
	mu      sync.Mutex
	results []*Result
	err     error
}

func (n *mockNotifier) Notify(_ context.Context, r *Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
	return n.err
}

func newTestService(t *testing.T, store Store, notifier Notifier) *Service {
	t.Helper()
	eng, ref := newTestEngine(t, EngineHooks{})
	return NewService(eng, store, ref, notifier, nil)
}

func TestProcess_AllScope(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(t, store, nil)

	run, err := svc.Process(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if run.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(run.Results) != 7 {
		t.Fatalf("results = %d, want 7", len(run.Results))
	}

	// Results come back in inbox order regardless of parallel execution.
	for i, m := range svc.Messages() {
		if run.Results[i] == nil {
			t.Fatalf("results[%d] = nil", i)
		}
		if run.Results[i].MessageID != m.ID {
			t.Errorf("results[%d].MessageID = %q, want %q", i, run.Results[i].MessageID, m.ID)
		}
	}

	if store.size() != 7 {
		t.Errorf("stored events = %d, want 7", store.size())
	}
}

// Audit sequence numbers come from inbox position, so ids are unique and
// deterministic within a run.
func TestProcess_AuditIDsFollowInboxPosition(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), nil)
	run, err := svc.Process(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	seen := make(map[string]bool)
	for i, r := range run.Results {
		want := fmt.Sprintf("-%03d", i+1)
		if !strings.HasSuffix(r.Audit.ID, want) {
			t.Errorf("results[%d] audit id = %q, want suffix %q", i, r.Audit.ID, want)
		}
		if seen[r.Audit.ID] {
			t.Errorf("duplicate audit id %q", r.Audit.ID)
		}
		seen[r.Audit.ID] = true
	}
}

func TestProcess_SingleScope(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(t, store, nil)

	run, err := svc.Process(context.Background(), "e3")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(run.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(run.Results))
	}
	if run.Results[0].MessageID != "e3" {
		t.Errorf("MessageID = %q, want e3", run.Results[0].MessageID)
	}
	// e3 is third in the inbox, so its id keeps that position even when
	// it is the only message in the batch.
	if !strings.HasSuffix(run.Results[0].Audit.ID, "-003") {
		t.Errorf("audit id = %q, want -003 suffix", run.Results[0].Audit.ID)
	}
}

// A single-message run must not reuse another message's event id: both
// stores upsert on id, so a collision would rewrite a different
// message's audit trail.
func TestProcess_SingleScopeKeepsBatchAuditTrail(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(t, store, nil)

	all, err := svc.Process(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Process(all): %v", err)
	}
	firstID := all.Results[0].Audit.ID

	single, err := svc.Process(context.Background(), "e3")
	if err != nil {
		t.Fatalf("Process(e3): %v", err)
	}
	if single.Results[0].Audit.ID == firstID {
		t.Fatalf("single run reused audit id %q", firstID)
	}

	ev, ok, err := store.Get(context.Background(), firstID)
	if err != nil || !ok {
		t.Fatalf("Get(%q) = %v, %v", firstID, ok, err)
	}
	if ev.MessageID != "e1" {
		t.Errorf("event %q MessageID = %q, want e1", firstID, ev.MessageID)
	}
	if store.size() != 7 {
		t.Errorf("stored events = %d, want 7", store.size())
	}
}

func TestProcess_EmptyScopeDefaultsToAll(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), nil)
	run, err := svc.Process(context.Background(), "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(run.Results) != 7 {
		t.Errorf("results = %d, want 7", len(run.Results))
	}
}

func TestProcess_UnknownScope(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), nil)
	_, err := svc.Process(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for unknown message id")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error = %q, want to name the unknown id", err)
	}
}

func TestProcess_NotifiesOnlyEscalations(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	svc := newTestService(t, newMockStore(), notifier)

	run, err := svc.Process(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	escalated := 0
	for _, r := range run.Results {
		if r.Escalated() {
			escalated++
		}
	}
	if escalated == 0 {
		t.Fatal("demo inbox produced no escalations")
	}
	if len(notifier.results) != escalated {
		t.Errorf("notifications = %d, want %d", len(notifier.results), escalated)
	}
	for _, r := range notifier.results {
		if !r.Escalated() {
			t.Errorf("notified non-escalated message %s", r.MessageID)
		}
	}
}

// A notifier failure is logged, not propagated.
func TestProcess_NotifierErrorDoesNotFail(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), &mockNotifier{err: errors.New("webhook down")})
	if _, err := svc.Process(context.Background(), ScopeAll); err != nil {
		t.Fatalf("Process: %v", err)
	}
}

// A store failure is logged per event; the caller still gets every result.
func TestProcess_StoreErrorDoesNotFail(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.putErr = errors.New("db down")
	svc := newTestService(t, store, nil)

	run, err := svc.Process(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(run.Results) != 7 {
		t.Errorf("results = %d, want 7", len(run.Results))
	}
}

func TestProcess_OnBatchHook(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), nil)

	var size int
	var dur time.Duration
	svc.OnBatch = func(n int, d time.Duration) {
		size = n
		dur = d
	}

	if _, err := svc.Process(context.Background(), ScopeAll); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if size != 7 {
		t.Errorf("batch size = %d, want 7", size)
	}
	if dur < 0 {
		t.Errorf("batch duration = %v", dur)
	}
}

func TestAuditAccessorsDelegateToStore(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(t, store, nil)

	run, err := svc.Process(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	id := run.Results[0].Audit.ID

	ev, ok, err := svc.AuditEvent(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("AuditEvent(%q) = %v, %v", id, ok, err)
	}
	if ev.MessageID != "e1" {
		t.Errorf("MessageID = %q, want e1", ev.MessageID)
	}

	if _, ok, _ := svc.AuditEvent(context.Background(), "INBOX-1999-01-01-001"); ok {
		t.Error("missing event resolved")
	}

	events, err := svc.AuditEvents(context.Background())
	if err != nil {
		t.Fatalf("AuditEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}

func TestMessages_InboxOrder(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMockStore(), nil)
	msgs := svc.Messages()
	if len(msgs) != 7 {
		t.Fatalf("messages = %d, want 7", len(msgs))
	}
	for i, id := range []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"} {
		if msgs[i].ID != id {
			t.Errorf("messages[%d].ID = %q, want %q", i, msgs[i].ID, id)
		}
	}
}
