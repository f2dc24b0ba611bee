package deck

import (
	"fmt"
	"sync"

	"proxyforge/internal/card"
	"proxyforge/internal/provider"
)

// Collection owns the application's rows. All mutation goes through its
// methods; rows escape only as value copies. It is safe for concurrent use.
type Collection struct {
	mu sync.Mutex

	rows              []Row
	history           *history
	listeners         map[int]Listener
	nextListener      int
	defaultProviderID string
}

// NewCollection builds an empty collection. New rows default to
// defaultProviderID when the deck has no previous row to inherit from.
func NewCollection(defaultProviderID string) *Collection {
	return &Collection{
		history:           newHistory(),
		listeners:         make(map[int]Listener),
		defaultProviderID: defaultProviderID,
	}
}

// Subscribe registers a change listener and returns its cancel function.
func (c *Collection) Subscribe(listener Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = listener
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Collection) notify(event Event) {
	for _, listener := range c.listeners {
		listener(event)
	}
}

// Rows returns a snapshot of all rows.
func (c *Collection) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection) snapshotLocked() []Row {
	rows := make([]Row, len(c.rows))
	for i, row := range c.rows {
		rows[i] = row.clone()
	}
	return rows
}

// Len returns the number of rows.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Get returns a copy of the row with the given id.
func (c *Collection) Get(id string) (Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.rows[i].clone(), true
	}
	return Row{}, false
}

func (c *Collection) indexLocked(id string) int {
	for i := range c.rows {
		if c.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// AddRow appends a fresh idle row. The provider is inherited from the last
// row, falling back to the collection default; Scryfall rows start with the
// default search options.
func (c *Collection) AddRow() Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	providerID := c.defaultProviderID
	if n := len(c.rows); n > 0 {
		providerID = c.rows[n-1].ProviderID
	}

	row := Row{
		ID:         NewRowID(),
		Quantity:   1,
		ProviderID: providerID,
		Status:     StatusIdle,
		Options:    provider.Options{Scryfall: provider.DefaultScryfallOptions()},
	}
	c.rows = append(c.rows, row)
	c.history.record(c.snapshotLocked())
	c.notify(Event{Kind: EventRowAdded, RowID: row.ID})
	return row.clone()
}

// RemoveRow deletes a single row. Removing an unknown id is an error.
func (c *Collection) RemoveRow(id string) error {
	return c.RemoveRows([]string{id})
}

// RemoveRows deletes the given rows in one history step. Unknown ids fail
// the whole operation without mutating anything.
func (c *Collection) RemoveRows(ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		if c.indexLocked(id) < 0 {
			return fmt.Errorf("deck: no row %s", id)
		}
		remove[id] = true
	}

	kept := c.rows[:0]
	for _, row := range c.rows {
		if !remove[row.ID] {
			kept = append(kept, row)
		}
	}
	c.rows = kept
	c.history.record(c.snapshotLocked())
	for id := range remove {
		c.notify(Event{Kind: EventRowRemoved, RowID: id})
	}
	return nil
}

// RowUpdate carries the user-editable fields of a row; nil fields are left
// untouched. Updates never force a status change.
type RowUpdate struct {
	Query      *string
	Quantity   *int
	ProviderID *string
	Options    *provider.Options
}

// UpdateRow applies a user edit to one row. Quantity is clamped to at
// least 1.
func (c *Collection) UpdateRow(id string, update RowUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("deck: no row %s", id)
	}
	row := &c.rows[i]
	if update.Query != nil {
		row.Query = *update.Query
	}
	if update.Quantity != nil {
		quantity := *update.Quantity
		if quantity < 1 {
			quantity = 1
		}
		row.Quantity = quantity
	}
	if update.ProviderID != nil {
		row.ProviderID = *update.ProviderID
	}
	if update.Options != nil {
		row.Options = *update.Options
	}
	c.history.record(c.snapshotLocked())
	c.notify(Event{Kind: EventRowUpdated, RowID: id})
	return nil
}

// Replace swaps the whole deck for the imported rows, assigning fresh ids
// and recording a single history step. Rows arrive pre-populated (status
// found when a card is present, idle otherwise).
func (c *Collection) Replace(rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	replacement := make([]Row, 0, len(rows))
	for _, row := range rows {
		cp := row.clone()
		cp.ID = NewRowID()
		cp.Generation = 0
		if cp.Quantity < 1 {
			cp.Quantity = 1
		}
		if cp.ProviderID == "" {
			cp.ProviderID = c.defaultProviderID
		}
		if cp.Status == "" {
			cp.Status = StatusIdle
		}
		replacement = append(replacement, cp)
	}
	c.rows = replacement
	c.history.record(c.snapshotLocked())
	c.notify(Event{Kind: EventReplaced})
}

// BeginSearch transitions a row to loading and returns the generation token
// the eventual completion must present. Status and card-data changes are
// deliberately not history steps.
func (c *Collection) BeginSearch(id string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return 0, fmt.Errorf("deck: no row %s", id)
	}
	row := &c.rows[i]
	if !CanTransition(row.Status, StatusLoading) {
		return 0, fmt.Errorf("deck: row %s cannot start a search from %s", id, row.Status)
	}
	row.Status = StatusLoading
	row.Err = ""
	row.Generation++
	c.notify(Event{Kind: EventStatusChange, RowID: id, Status: StatusLoading})
	return row.Generation, nil
}

// CompleteFound finishes a search with a single resolved card. Stale
// generations are dropped silently: a newer search owns the row.
func (c *Collection) CompleteFound(id string, generation uint64, found card.Card, results []card.Card) error {
	return c.complete(id, generation, func(row *Row) {
		cp := found
		row.Card = &cp
		if results != nil {
			row.SearchResults = results
		} else {
			row.SearchResults = []card.Card{found}
		}
		row.Status = StatusFound
		row.Err = ""
	})
}

// CompleteError finishes a search with a failure message.
func (c *Collection) CompleteError(id string, generation uint64, message string) error {
	return c.complete(id, generation, func(row *Row) {
		row.Card = nil
		row.SearchResults = nil
		row.Status = StatusError
		row.Err = message
	})
}

// CompleteMultiple finishes a search with an ambiguous candidate list for
// the user to disambiguate.
func (c *Collection) CompleteMultiple(id string, generation uint64, results []card.Card) error {
	if len(results) < 2 {
		return fmt.Errorf("deck: multiple outcome needs at least 2 candidates, got %d", len(results))
	}
	return c.complete(id, generation, func(row *Row) {
		row.Card = nil
		row.SearchResults = results
		row.Status = StatusMultiple
		row.Err = ""
	})
}

func (c *Collection) complete(id string, generation uint64, apply func(*Row)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("deck: no row %s", id)
	}
	row := &c.rows[i]
	if row.Generation != generation {
		// A newer search superseded this one; drop the stale write.
		return nil
	}
	if row.Status != StatusLoading {
		return fmt.Errorf("deck: row %s is %s, expected loading", id, row.Status)
	}
	apply(row)
	c.notify(Event{Kind: EventStatusChange, RowID: id, Status: row.Status})
	return nil
}

// Resolve picks one candidate from an ambiguous row, moving it to found.
func (c *Collection) Resolve(id string, chosen card.Card) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("deck: no row %s", id)
	}
	row := &c.rows[i]
	if row.Status != StatusMultiple {
		return fmt.Errorf("deck: row %s is %s, expected multiple", id, row.Status)
	}
	match := false
	for _, candidate := range row.SearchResults {
		if candidate.ID == chosen.ID {
			match = true
			break
		}
	}
	if !match {
		return fmt.Errorf("deck: card %s is not a candidate for row %s", chosen.ID, id)
	}
	cp := chosen
	row.Card = &cp
	row.Status = StatusFound
	row.Err = ""
	c.notify(Event{Kind: EventStatusChange, RowID: id, Status: StatusFound})
	return nil
}

// Undo restores the previous structural snapshot. It reports whether a step
// was available.
func (c *Collection) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.history.undo()
	if !ok {
		return false
	}
	c.rows = rows
	c.notify(Event{Kind: EventHistory})
	return true
}

// Redo reapplies an undone snapshot.
func (c *Collection) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.history.redo()
	if !ok {
		return false
	}
	c.rows = rows
	c.notify(Event{Kind: EventHistory})
	return true
}

// CanUndo reports whether an undo step is available.
func (c *Collection) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.canUndo()
}

// CanRedo reports whether a redo step is available.
func (c *Collection) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.canRedo()
}
