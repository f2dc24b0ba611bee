package deck

import (
	"fmt"
	"testing"

	"proxyforge/internal/card"
)

func testCard(id string) card.Card {
	return card.Card{
		ID:        id,
		Name:      "Card " + id,
		ImageURIs: card.ImageURIs{Front: "https://img.example/" + id + ".jpg"},
	}
}

func TestAddRowInheritsProvider(t *testing.T) {
	c := NewCollection("scryfall")

	first := c.AddRow()
	if first.ProviderID != "scryfall" {
		t.Fatalf("first row provider = %q, want scryfall", first.ProviderID)
	}
	if first.Status != StatusIdle || first.Quantity != 1 {
		t.Fatalf("unexpected defaults: status=%s quantity=%d", first.Status, first.Quantity)
	}
	if first.Options.Scryfall == nil || first.Options.Scryfall.Unique != "prints" {
		t.Fatalf("expected default scryfall options, got %+v", first.Options.Scryfall)
	}

	pid := "pokemontcg"
	if err := c.UpdateRow(first.ID, RowUpdate{ProviderID: &pid}); err != nil {
		t.Fatal(err)
	}
	second := c.AddRow()
	if second.ProviderID != "pokemontcg" {
		t.Fatalf("second row provider = %q, want pokemontcg", second.ProviderID)
	}
}

func TestUpdateRowClampsQuantity(t *testing.T) {
	c := NewCollection("scryfall")
	row := c.AddRow()

	zero := 0
	if err := c.UpdateRow(row.ID, RowUpdate{Quantity: &zero}); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get(row.ID)
	if got.Quantity != 1 {
		t.Fatalf("quantity = %d, want clamped to 1", got.Quantity)
	}

	if err := c.UpdateRow("row-missing", RowUpdate{Quantity: &zero}); err == nil {
		t.Fatal("expected error updating unknown row")
	}
}

func TestRemoveRowsIsAtomic(t *testing.T) {
	c := NewCollection("scryfall")
	a := c.AddRow()
	b := c.AddRow()

	if err := c.RemoveRows([]string{a.ID, "row-missing"}); err == nil {
		t.Fatal("expected error removing unknown row")
	}
	if c.Len() != 2 {
		t.Fatalf("failed removal mutated the deck, len = %d", c.Len())
	}

	if err := c.RemoveRows([]string{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d after removing both rows", c.Len())
	}
}

func TestSearchLifecycle(t *testing.T) {
	c := NewCollection("scryfall")
	row := c.AddRow()

	gen, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get(row.ID); got.Status != StatusLoading {
		t.Fatalf("status = %s, want loading", got.Status)
	}
	if _, err := c.BeginSearch(row.ID); err == nil {
		t.Fatal("expected second BeginSearch on loading row to fail")
	}

	found := testCard("bolt-1")
	if err := c.CompleteFound(row.ID, gen, found, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get(row.ID)
	if got.Status != StatusFound || got.Card == nil || got.Card.ID != "bolt-1" {
		t.Fatalf("unexpected row after completion: %+v", got)
	}
	if err := got.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestStaleCompletionIsDropped(t *testing.T) {
	c := NewCollection("scryfall")
	row := c.AddRow()

	stale, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteError(row.ID, stale, "timeout"); err != nil {
		t.Fatal(err)
	}
	fresh, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}

	// The stale search reports in after the retry started; it must not win.
	if err := c.CompleteError(row.ID, stale, "timeout again"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get(row.ID); got.Status != StatusLoading {
		t.Fatalf("stale completion overwrote row: status = %s", got.Status)
	}

	if err := c.CompleteFound(row.ID, fresh, testCard("bolt-2"), nil); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get(row.ID)
	if got.Status != StatusFound || got.Card.ID != "bolt-2" {
		t.Fatalf("fresh completion lost: %+v", got)
	}
}

func TestCompleteMultipleAndResolve(t *testing.T) {
	c := NewCollection("scryfall")
	row := c.AddRow()

	gen, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteMultiple(row.ID, gen, []card.Card{testCard("a")}); err == nil {
		t.Fatal("expected single-candidate multiple to be rejected")
	}
	candidates := []card.Card{testCard("a"), testCard("b"), testCard("c")}
	if err := c.CompleteMultiple(row.ID, gen, candidates); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get(row.ID)
	if got.Status != StatusMultiple || len(got.SearchResults) != 3 {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := c.Resolve(row.ID, testCard("z")); err == nil {
		t.Fatal("expected non-candidate resolve to fail")
	}
	if err := c.Resolve(row.ID, candidates[1]); err != nil {
		t.Fatal(err)
	}
	got, _ = c.Get(row.ID)
	if got.Status != StatusFound || got.Card == nil || got.Card.ID != "b" {
		t.Fatalf("resolve did not land: %+v", got)
	}
	if err := c.Resolve(row.ID, candidates[1]); err == nil {
		t.Fatal("expected resolve on found row to fail")
	}
}

func TestUndoRedoStructuralOnly(t *testing.T) {
	c := NewCollection("scryfall")
	if c.CanUndo() {
		t.Fatal("fresh collection should have no undo history")
	}

	row := c.AddRow()
	query := "Lightning Bolt"
	if err := c.UpdateRow(row.ID, RowUpdate{Query: &query}); err != nil {
		t.Fatal(err)
	}

	// Search status churn is not a history step.
	gen, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteFound(row.ID, gen, testCard("bolt-1"), nil); err != nil {
		t.Fatal(err)
	}

	if !c.Undo() {
		t.Fatal("expected undo step")
	}
	got, _ := c.Get(row.ID)
	if got.Query != "" {
		t.Fatalf("undo should revert the query edit, got %q", got.Query)
	}

	if !c.Undo() {
		t.Fatal("expected second undo step")
	}
	if c.Len() != 0 {
		t.Fatalf("undoing the add should empty the deck, len = %d", c.Len())
	}
	if c.Undo() {
		t.Fatal("expected history to be exhausted")
	}

	if !c.Redo() {
		t.Fatal("expected redo step")
	}
	if c.Len() != 1 {
		t.Fatalf("redo should restore the row, len = %d", c.Len())
	}

	// A new edit discards the redo branch.
	c.AddRow()
	if c.CanRedo() {
		t.Fatal("new edit should clear redo history")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	c := NewCollection("scryfall")
	for i := 0; i < maxHistorySize+10; i++ {
		c.AddRow()
	}
	undos := 0
	for c.Undo() {
		undos++
	}
	if undos != maxHistorySize {
		t.Fatalf("undo depth = %d, want %d", undos, maxHistorySize)
	}
}

func TestReplaceAssignsFreshIDs(t *testing.T) {
	c := NewCollection("scryfall")
	c.AddRow()

	found := testCard("imported")
	c.Replace([]Row{
		{Query: "Counterspell", Quantity: 4, ProviderID: "scryfall", Card: &found, Status: StatusFound},
		{Query: "Pikachu", ProviderID: "pokemontcg"},
		{Query: "Llanowar Elves"},
	})

	rows := c.Rows()
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	if rows[0].ID == "" || rows[0].ID == rows[1].ID {
		t.Fatal("replace must assign fresh unique ids")
	}
	if rows[0].Status != StatusFound || rows[0].Card == nil {
		t.Fatalf("imported found row lost its card: %+v", rows[0])
	}
	if rows[1].Quantity != 1 {
		t.Fatalf("quantity not defaulted: %d", rows[1].Quantity)
	}
	if rows[2].ProviderID != "scryfall" || rows[2].Status != StatusIdle {
		t.Fatalf("defaults not applied: %+v", rows[2])
	}

	if !c.Undo() {
		t.Fatal("expected replace to be undoable")
	}
	if c.Len() != 1 {
		t.Fatalf("undo of replace should restore the old deck, len = %d", c.Len())
	}
}

func TestSubscribe(t *testing.T) {
	c := NewCollection("scryfall")

	var events []Event
	cancel := c.Subscribe(func(e Event) { events = append(events, e) })

	row := c.AddRow()
	gen, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteError(row.ID, gen, "no cards found"); err != nil {
		t.Fatal(err)
	}

	want := []EventKind{EventRowAdded, EventStatusChange, EventStatusChange}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, kind := range want {
		if events[i].Kind != kind {
			t.Fatalf("event[%d] = %s, want %s", i, events[i].Kind, kind)
		}
	}
	if events[2].Status != StatusError {
		t.Fatalf("final status event = %s, want error", events[2].Status)
	}

	cancel()
	c.AddRow()
	if len(events) != len(want) {
		t.Fatal("cancelled listener still received events")
	}
}

func TestRowsReturnsSnapshots(t *testing.T) {
	c := NewCollection("scryfall")
	row := c.AddRow()
	gen, err := c.BeginSearch(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteMultiple(row.ID, gen, []card.Card{testCard("a"), testCard("b")}); err != nil {
		t.Fatal(err)
	}

	rows := c.Rows()
	rows[0].SearchResults[0].ID = "mutated"
	rows[0].Query = "mutated"

	got, _ := c.Get(row.ID)
	if got.SearchResults[0].ID != "a" || got.Query != "" {
		t.Fatalf("snapshot mutation leaked into collection: %+v", got)
	}
}

func TestConcurrentCompletions(t *testing.T) {
	c := NewCollection("scryfall")
	const n = 20
	type search struct {
		id  string
		gen uint64
	}
	searches := make([]search, 0, n)
	for i := 0; i < n; i++ {
		row := c.AddRow()
		gen, err := c.BeginSearch(row.ID)
		if err != nil {
			t.Fatal(err)
		}
		searches = append(searches, search{row.ID, gen})
	}

	done := make(chan error, n)
	for i, s := range searches {
		go func(i int, s search) {
			done <- c.CompleteFound(s.id, s.gen, testCard(fmt.Sprintf("card-%d", i)), nil)
		}(i, s)
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
	for _, row := range c.Rows() {
		if row.Status != StatusFound {
			t.Fatalf("row %s = %s, want found", row.ID, row.Status)
		}
	}
}
