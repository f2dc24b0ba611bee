package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proxyforge/internal/provider"
)

// searchOptionFlags is the flag surface for per-row search refinements.
// Scryfall filter fields merge into the query string; --order and --dir
// also drive the Pokemon TCG orderBy parameter for rows on that provider.
type searchOptionFlags struct {
	typeLine string
	artist   string
	rarity   string
	foil     bool
	tokens   string
	legal    []string
	notLegal []string
	unique   string
	order    string
	dir      string
}

var searchOptionFlagNames = []string{
	"type", "artist", "rarity", "foil", "tokens",
	"legal", "not-legal", "unique", "order", "dir",
}

func (f *searchOptionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.typeLine, "type", "", "Filter by type line (Scryfall)")
	flags.StringVar(&f.artist, "artist", "", "Filter by artist (Scryfall)")
	flags.StringVar(&f.rarity, "rarity", "", "Filter by rarity (Scryfall)")
	flags.BoolVar(&f.foil, "foil", false, "Only foil printings (Scryfall)")
	flags.StringVar(&f.tokens, "tokens", "", "Token handling: 'only' or 'exclude' (Scryfall)")
	flags.StringSliceVar(&f.legal, "legal", nil, "Require legality in format(s) (Scryfall)")
	flags.StringSliceVar(&f.notLegal, "not-legal", nil, "Require non-legality in format(s) (Scryfall)")
	flags.StringVar(&f.unique, "unique", "", "Result uniqueness: cards, art, or prints (Scryfall)")
	flags.StringVar(&f.order, "order", "", "Sort field")
	flags.StringVar(&f.dir, "dir", "", "Sort direction: asc or desc")
}

func (f *searchOptionFlags) anySet(cmd *cobra.Command) bool {
	for _, name := range searchOptionFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (f *searchOptionFlags) build() (provider.Options, error) {
	scry := provider.DefaultScryfallOptions()
	if f.unique != "" {
		scry.Unique = f.unique
	}
	scry.Order = f.order
	scry.Dir = f.dir
	scry.TypeLine = f.typeLine
	scry.Artist = f.artist
	scry.Rarity = f.rarity
	scry.Foil = f.foil

	switch f.tokens {
	case "":
	case "only":
		yes := true
		scry.IsToken = &yes
	case "exclude":
		no := false
		scry.IsToken = &no
	default:
		return provider.Options{}, fmt.Errorf("--tokens must be 'only' or 'exclude', got %q", f.tokens)
	}

	if len(f.legal) > 0 || len(f.notLegal) > 0 {
		scry.Legalities = make(map[string]provider.Legality, len(f.legal)+len(f.notLegal))
		for _, format := range f.legal {
			scry.Legalities[format] = provider.LegalityLegal
		}
		for _, format := range f.notLegal {
			scry.Legalities[format] = provider.LegalityNotLegal
		}
	}

	options := provider.Options{Scryfall: scry}
	if f.order != "" {
		options.Pokemon = &provider.PokemonOptions{OrderBy: f.order, Dir: f.dir}
	}
	return options, nil
}
