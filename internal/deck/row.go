package deck

import (
	"fmt"

	"github.com/google/uuid"

	"proxyforge/internal/card"
	"proxyforge/internal/provider"
)

// Row is one user-defined proxy request: a query, a print quantity, and the
// resolved card once a search completes.
//
// Generation is the fencing token for in-flight searches: it increments
// every time a search begins, and completion writes carrying a stale
// generation are dropped instead of overwriting a newer search's outcome.
type Row struct {
	ID            string
	Query         string
	Quantity      int
	ProviderID    string
	Card          *card.Card
	SearchResults []card.Card
	Status        Status
	Err           string
	Options       provider.Options
	Generation    uint64
}

// NewRowID produces a session-unique row identifier.
func NewRowID() string {
	return "row-" + uuid.NewString()
}

// CheckInvariants verifies the status/card relationships:
// found implies a card, multiple implies candidates and no card, and error
// implies no card.
func (r Row) CheckInvariants() error {
	switch r.Status {
	case StatusFound:
		if r.Card == nil {
			return fmt.Errorf("row %s: found without card", r.ID)
		}
	case StatusMultiple:
		if r.Card != nil {
			return fmt.Errorf("row %s: multiple with card set", r.ID)
		}
		if len(r.SearchResults) < 2 {
			return fmt.Errorf("row %s: multiple with %d candidates", r.ID, len(r.SearchResults))
		}
	case StatusError:
		if r.Card != nil {
			return fmt.Errorf("row %s: error with card set", r.ID)
		}
	}
	if r.Quantity < 1 {
		return fmt.Errorf("row %s: quantity %d below 1", r.ID, r.Quantity)
	}
	return nil
}

// clone copies the row with its own candidate slice so history snapshots do
// not alias live state. Card values are immutable and shared.
func (r Row) clone() Row {
	cp := r
	if r.SearchResults != nil {
		cp.SearchResults = make([]card.Card, len(r.SearchResults))
		copy(cp.SearchResults, r.SearchResults)
	}
	return cp
}
