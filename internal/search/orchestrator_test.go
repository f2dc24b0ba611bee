package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"proxyforge/internal/card"
	"proxyforge/internal/deck"
	"proxyforge/internal/fetch"
	"proxyforge/internal/provider"
	"proxyforge/internal/provider/scryfall"
)

// stubProvider returns canned results per query and records concurrency.
type stubProvider struct {
	id      string
	results map[string][]card.Card
	err     error
	delay   time.Duration

	mu      sync.Mutex
	active  int
	maxSeen int
	calls   int
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Search(ctx context.Context, query string, _ provider.Options) ([]card.Card, error) {
	s.mu.Lock()
	s.calls++
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func newTestOrchestrator(t *testing.T, stub *stubProvider, opts ...Option) (*Orchestrator, *deck.Collection) {
	t.Helper()
	registry, err := provider.NewRegistry(stub)
	if err != nil {
		t.Fatal(err)
	}
	collection := deck.NewCollection(stub.id)
	return NewOrchestrator(registry, collection, opts...), collection
}

func addRow(t *testing.T, c *deck.Collection, query string) deck.Row {
	t.Helper()
	row := c.AddRow()
	if err := c.UpdateRow(row.ID, deck.RowUpdate{Query: &query}); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get(row.ID)
	return got
}

func TestSearchRowSingleMatch(t *testing.T) {
	stub := &stubProvider{
		id: "stub",
		results: map[string][]card.Card{
			"Lightning Bolt": {{ID: "bolt-1", Name: "Lightning Bolt", ImageURIs: card.ImageURIs{Front: "https://img/f.jpg"}}},
		},
	}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "Lightning Bolt")

	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFound {
		t.Fatalf("outcome = %s, want found", outcome)
	}
	got, _ := c.Get(row.ID)
	if got.Status != deck.StatusFound || got.Card == nil || got.Card.ID != "bolt-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestSearchRowNoMatches(t *testing.T) {
	stub := &stubProvider{id: "stub", results: map[string][]card.Card{}}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "Nonexistent Card")

	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeError {
		t.Fatalf("outcome = %s, want error", outcome)
	}
	got, _ := c.Get(row.ID)
	if got.Status != deck.StatusError || got.Err != "no cards found" {
		t.Fatalf("unexpected row: status=%s err=%q", got.Status, got.Err)
	}
}

func TestSearchRowProviderFailure(t *testing.T) {
	stub := &stubProvider{id: "stub", err: errors.New("upstream exploded")}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "Lightning Bolt")

	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeError {
		t.Fatalf("outcome = %s, want error", outcome)
	}
	got, _ := c.Get(row.ID)
	if got.Err != "failed to fetch" {
		t.Fatalf("row error = %q, want the generic fetch message", got.Err)
	}
}

func TestSearchRowAmbiguous(t *testing.T) {
	stub := &stubProvider{
		id: "stub",
		results: map[string][]card.Card{
			"Bolt": {
				{ID: "a", Name: "Bolt", ImageURIs: card.ImageURIs{Front: "https://img/a.jpg"}},
				{ID: "b", Name: "Bolt", ImageURIs: card.ImageURIs{Front: "https://img/b.jpg"}},
			},
		},
	}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "Bolt")

	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeMultiple {
		t.Fatalf("outcome = %s, want multiple", outcome)
	}
	got, _ := c.Get(row.ID)
	if got.Status != deck.StatusMultiple || len(got.SearchResults) != 2 {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestSearchRowPreconditions(t *testing.T) {
	stub := &stubProvider{id: "stub"}
	o, c := newTestOrchestrator(t, stub)

	if _, err := o.SearchRow(context.Background(), "row-missing"); err == nil {
		t.Fatal("expected error for unknown row")
	}

	row := c.AddRow()
	if _, err := o.SearchRow(context.Background(), row.ID); err == nil {
		t.Fatal("expected error for empty query")
	}
	if stub.calls != 0 {
		t.Fatalf("provider called %d times for precondition failures", stub.calls)
	}
}

func TestSearchRowUnknownProvider(t *testing.T) {
	stub := &stubProvider{id: "stub"}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "Bolt")
	pid := "nope"
	if err := c.UpdateRow(row.ID, deck.RowUpdate{ProviderID: &pid}); err != nil {
		t.Fatal(err)
	}

	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeError {
		t.Fatalf("outcome = %s, want error", outcome)
	}
	got, _ := c.Get(row.ID)
	if got.Status != deck.StatusError {
		t.Fatalf("status = %s, want error", got.Status)
	}
}

func TestSearchAllBoundsConcurrency(t *testing.T) {
	stub := &stubProvider{
		id:      "stub",
		results: map[string][]card.Card{},
		delay:   20 * time.Millisecond,
	}
	o, c := newTestOrchestrator(t, stub, WithConcurrency(2))

	const rows = 8
	for i := 0; i < rows; i++ {
		addRow(t, c, fmt.Sprintf("query %d", i))
	}

	snapshot, err := o.SearchAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Total != rows || snapshot.Current != rows {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if stub.maxSeen > 2 {
		t.Fatalf("observed %d concurrent searches, cap is 2", stub.maxSeen)
	}
}

func TestSearchAllProgressAccounting(t *testing.T) {
	stub := &stubProvider{
		id: "stub",
		results: map[string][]card.Card{
			"one": {{ID: "c1", ImageURIs: card.ImageURIs{Front: "https://img/1.jpg"}}},
			"two": {
				{ID: "c2a", ImageURIs: card.ImageURIs{Front: "https://img/2a.jpg"}},
				{ID: "c2b", ImageURIs: card.ImageURIs{Front: "https://img/2b.jpg"}},
			},
		},
	}
	o, c := newTestOrchestrator(t, stub, WithConcurrency(1))
	addRow(t, c, "one")
	addRow(t, c, "two")
	addRow(t, c, "missing")
	c.AddRow() // blank query, skipped

	var updates []ProgressSnapshot
	var mu sync.Mutex
	snapshot, err := o.SearchAll(context.Background(), nil, func(s ProgressSnapshot) {
		mu.Lock()
		updates = append(updates, s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	want := ProgressSnapshot{Total: 3, Current: 3, Found: 1, Failed: 1, Pending: 1}
	if snapshot != want {
		t.Fatalf("snapshot = %+v, want %+v", snapshot, want)
	}
	if !snapshot.Done() {
		t.Fatal("snapshot should report done")
	}
	if len(updates) != 3 {
		t.Fatalf("observer fired %d times, want 3", len(updates))
	}
	for i, s := range updates {
		if s.Current != i+1 {
			t.Fatalf("updates[%d].Current = %d", i, s.Current)
		}
	}
}

func TestSearchAllSelectsRequestedRows(t *testing.T) {
	stub := &stubProvider{
		id: "stub",
		results: map[string][]card.Card{
			"one": {{ID: "c1", ImageURIs: card.ImageURIs{Front: "https://img/1.jpg"}}},
			"two": {{ID: "c2", ImageURIs: card.ImageURIs{Front: "https://img/2.jpg"}}},
		},
	}
	o, c := newTestOrchestrator(t, stub)
	first := addRow(t, c, "one")
	second := addRow(t, c, "two")

	snapshot, err := o.SearchAll(context.Background(), []string{second.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Total != 1 || snapshot.Found != 1 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	got, _ := c.Get(first.ID)
	if got.Status != deck.StatusIdle {
		t.Fatalf("unselected row was searched: %s", got.Status)
	}
}

func TestSearchAllSkipsResolvedRows(t *testing.T) {
	stub := &stubProvider{
		id: "stub",
		results: map[string][]card.Card{
			"one": {{ID: "c1", ImageURIs: card.ImageURIs{Front: "https://img/1.jpg"}}},
		},
	}
	o, c := newTestOrchestrator(t, stub)
	row := addRow(t, c, "one")

	if _, err := o.SearchRow(context.Background(), row.ID); err != nil {
		t.Fatal(err)
	}

	// A sweep leaves it alone.
	snapshot, err := o.SearchAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Total != 0 || stub.calls != 1 {
		t.Fatalf("resolved row re-searched: snapshot=%+v calls=%d", snapshot, stub.calls)
	}

	// An explicit request searches it again.
	snapshot, err = o.SearchAll(context.Background(), []string{row.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Total != 1 || stub.calls != 2 {
		t.Fatalf("explicit re-search skipped: snapshot=%+v calls=%d", snapshot, stub.calls)
	}
}

// End-to-end through the real Scryfall adapter against a local server.
func TestSearchRowThroughScryfall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"e3285e6b","name":"Lightning Bolt","set":"lea","artist":"Christopher Rush","scryfall_uri":"https://scryfall.com/card/lea/161","image_uris":{"large":"https://img/e3285e6b.jpg"}}]}`)
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL, fetch.NewClient(), scryfall.WithSleeper(func(time.Duration) {}))
	if err != nil {
		t.Fatal(err)
	}
	registry, err := provider.NewRegistry(client)
	if err != nil {
		t.Fatal(err)
	}
	collection := deck.NewCollection(scryfall.ProviderID)
	o := NewOrchestrator(registry, collection)

	row := addRow(t, collection, "Lightning Bolt")
	outcome, err := o.SearchRow(context.Background(), row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFound {
		t.Fatalf("outcome = %s, want found", outcome)
	}
	got, _ := collection.Get(row.ID)
	if got.Card == nil || got.Card.Name != "Lightning Bolt" || got.Card.ImageURIs.Front != "https://img/e3285e6b.jpg" {
		t.Fatalf("unexpected card: %+v", got.Card)
	}
}
