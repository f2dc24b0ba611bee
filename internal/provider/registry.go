package provider

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is an injectable lookup table of provider adapters keyed by id.
// Construct one per application (or per test with fakes) instead of relying
// on a package-level list.
type Registry struct {
	byID map[string]Provider
}

// NewRegistry builds a registry, rejecting nil entries, blank ids, and
// duplicates.
func NewRegistry(providers ...Provider) (Registry, error) {
	byID := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider must not be nil")
		}
		id := strings.ToLower(strings.TrimSpace(p.ID()))
		if id == "" {
			return Registry{}, fmt.Errorf("provider id must not be empty")
		}
		if _, ok := byID[id]; ok {
			return Registry{}, fmt.Errorf("duplicate provider %q", id)
		}
		byID[id] = p
	}
	return Registry{byID: byID}, nil
}

// Get returns the provider registered under id.
func (r Registry) Get(id string) (Provider, bool) {
	if r.byID == nil {
		return nil, false
	}
	p, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// IDs returns the registered provider ids in sorted order.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
