package deck

import "strings"

// Status represents the lifecycle of a card row.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusFound    Status = "found"
	StatusError    Status = "error"
	StatusMultiple Status = "multiple"
)

var allStatuses = []Status{
	StatusIdle,
	StatusLoading,
	StatusFound,
	StatusError,
	StatusMultiple,
}

// transitions is the legal status graph. Terminal removal is handled by the
// collection, not the graph; external edits (query/quantity/provider) never
// change status.
var transitions = map[Status][]Status{
	StatusIdle:     {StatusLoading},
	StatusLoading:  {StatusFound, StatusError, StatusMultiple},
	StatusFound:    {StatusLoading},
	StatusError:    {StatusLoading},
	StatusMultiple: {StatusLoading, StatusFound},
}

// CanTransition reports whether a row may move from one status to another.
// A search outcome never lands without passing through loading; the only
// other edge is multiple to found on explicit user disambiguation.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}
