package deck

// EventKind classifies a collection change notification.
type EventKind string

const (
	EventRowAdded     EventKind = "row_added"
	EventRowRemoved   EventKind = "row_removed"
	EventRowUpdated   EventKind = "row_updated"
	EventStatusChange EventKind = "status_change"
	EventReplaced     EventKind = "replaced"
	EventHistory      EventKind = "history"
)

// Event describes one observable collection change. RowID is empty for
// collection-wide events (replace, undo, redo).
type Event struct {
	Kind   EventKind
	RowID  string
	Status Status
}

// Listener receives collection change events. Listeners run synchronously
// under the collection lock; keep them fast and never call back into the
// collection from one.
type Listener func(Event)
