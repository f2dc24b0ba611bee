package provider

// Legality is a per-format constraint in a Scryfall search.
type Legality string

const (
	LegalityLegal    Legality = "legal"
	LegalityNotLegal Legality = "not_legal"
)

// ScryfallOptions are the structured search refinements for the Scryfall
// adapter. Filter fields merge into the free-text query string; the
// remaining fields become request parameters.
type ScryfallOptions struct {
	Unique              string
	Order               string
	Dir                 string
	IncludeExtras       bool
	IncludeMultilingual bool
	IncludeVariations   bool

	TypeLine   string
	Artist     string
	Rarity     string
	Foil       bool
	IsToken    *bool
	Legalities map[string]Legality
}

// DefaultScryfallOptions mirror the search behavior applied when the user
// never opened the search settings: all prints, extras included.
func DefaultScryfallOptions() *ScryfallOptions {
	return &ScryfallOptions{
		Unique:        "prints",
		IncludeExtras: true,
	}
}

// PokemonOptions are the ordering refinements for the Pokemon TCG adapter.
type PokemonOptions struct {
	OrderBy string
	Dir     string
}

// Options is the provider-specific search configuration attached to a row.
// Exactly the arm matching the row's provider is consulted; the other arm
// is ignored.
type Options struct {
	Scryfall *ScryfallOptions
	Pokemon  *PokemonOptions
}
