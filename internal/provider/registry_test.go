package provider_test

import (
	"context"
	"reflect"
	"testing"

	"proxyforge/internal/card"
	"proxyforge/internal/provider"
)

type fakeProvider struct {
	id string
}

func (f fakeProvider) ID() string { return f.id }

func (f fakeProvider) Search(context.Context, string, provider.Options) ([]card.Card, error) {
	return nil, nil
}

func TestNewRegistryLookup(t *testing.T) {
	reg, err := provider.NewRegistry(fakeProvider{id: "scryfall"}, fakeProvider{id: "pokemontcg"})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if _, ok := reg.Get("scryfall"); !ok {
		t.Fatal("expected scryfall provider")
	}
	if _, ok := reg.Get("  Scryfall "); !ok {
		t.Fatal("lookup should normalize case and whitespace")
	}
	if _, ok := reg.Get("gatherer"); ok {
		t.Fatal("unexpected provider for unknown id")
	}
	if got := reg.IDs(); !reflect.DeepEqual(got, []string{"pokemontcg", "scryfall"}) {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	if _, err := provider.NewRegistry(fakeProvider{id: "scryfall"}, fakeProvider{id: "SCRYFALL"}); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestNewRegistryRejectsBlankID(t *testing.T) {
	if _, err := provider.NewRegistry(fakeProvider{id: "  "}); err == nil {
		t.Fatal("expected blank id error")
	}
}

func TestNewRegistryRejectsNil(t *testing.T) {
	if _, err := provider.NewRegistry(nil); err == nil {
		t.Fatal("expected nil provider error")
	}
}

func TestEmptyRegistryGet(t *testing.T) {
	var reg provider.Registry
	if _, ok := reg.Get("scryfall"); ok {
		t.Fatal("zero-value registry must be empty")
	}
}
