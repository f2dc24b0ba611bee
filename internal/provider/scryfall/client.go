package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"proxyforge/internal/card"
	"proxyforge/internal/fetch"
	"proxyforge/internal/provider"
)

const (
	// ProviderID is the registry key for this adapter.
	ProviderID = "scryfall"

	defaultRateLimitDelay = 100 * time.Millisecond
)

// Client provides access to the Scryfall card search API.
type Client struct {
	baseURL string
	fetcher *fetch.Client

	rateLimitDelay time.Duration
	sleeper        func(time.Duration)
}

var _ provider.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRateLimitDelay overrides the pause inserted after each successful
// search call.
func WithRateLimitDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.rateLimitDelay = delay
	}
}

// WithSleeper overrides how the rate-limit pause is performed (useful for
// tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// New creates a Scryfall client. The fetcher carries the retry policy.
func New(baseURL string, fetcher *fetch.Client, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("scryfall base url required")
	}
	if fetcher == nil {
		return nil, errors.New("scryfall fetch client required")
	}
	client := &Client{
		baseURL:        baseURL,
		fetcher:        fetcher,
		rateLimitDelay: defaultRateLimitDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ID returns the registry key for this adapter.
func (c *Client) ID() string { return ProviderID }

// Search performs a Scryfall full-text card search. Zero matches (including
// an upstream 404) yield (nil, nil). A fixed small delay runs after each
// successful call to respect the upstream rate limit; retries inside the
// fetch client do not re-trigger it.
func (c *Client) Search(ctx context.Context, query string, opts provider.Options) ([]card.Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	options := opts.Scryfall
	if options == nil {
		options = provider.DefaultScryfallOptions()
	}

	endpoint, err := url.Parse(c.baseURL + "/cards/search")
	if err != nil {
		return nil, fmt.Errorf("parse scryfall url: %w", err)
	}
	params := url.Values{}
	params.Set("q", buildQuery(query, options))
	if options.Unique != "" {
		params.Set("unique", options.Unique)
	}
	if options.Order != "" {
		params.Set("order", options.Order)
	}
	if options.Dir != "" {
		params.Set("dir", options.Dir)
	}
	if options.IncludeExtras {
		params.Set("include_extras", "true")
	}
	if options.IncludeMultilingual {
		params.Set("include_multilingual", "true")
	}
	if options.IncludeVariations {
		params.Set("include_variations", "true")
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Get(ctx, endpoint.String())
	if err != nil {
		if fetch.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("scryfall search: %w", err)
	}
	defer resp.Body.Close()

	c.pause(ctx)

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode scryfall response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}

	cards := make([]card.Card, 0, len(payload.Data))
	for _, entry := range payload.Data {
		cards = append(cards, normalize(entry))
	}
	return cards, nil
}

func (c *Client) pause(ctx context.Context) {
	if c.rateLimitDelay <= 0 {
		return
	}
	if c.sleeper != nil {
		c.sleeper(c.rateLimitDelay)
		return
	}
	timer := time.NewTimer(c.rateLimitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// buildQuery merges the structured option filters into the free-text query
// using Scryfall's query-language conventions.
func buildQuery(query string, options *provider.ScryfallOptions) string {
	var b strings.Builder
	b.WriteString(query)

	if t := strings.TrimSpace(options.TypeLine); t != "" {
		fmt.Fprintf(&b, " type:%s", quoteTerm(t))
	}
	if a := strings.TrimSpace(options.Artist); a != "" {
		fmt.Fprintf(&b, " artist:%s", quoteTerm(a))
	}
	if r := strings.TrimSpace(options.Rarity); r != "" {
		fmt.Fprintf(&b, " rarity:%s", r)
	}
	if options.Foil {
		b.WriteString(" is:foil")
	}
	if options.IsToken != nil {
		if *options.IsToken {
			b.WriteString(" is:token")
		} else {
			b.WriteString(" -is:token")
		}
	}
	for _, format := range sortedFormats(options.Legalities) {
		switch options.Legalities[format] {
		case provider.LegalityLegal:
			fmt.Fprintf(&b, " legal:%s", format)
		case provider.LegalityNotLegal:
			fmt.Fprintf(&b, " -legal:%s", format)
		}
	}
	return b.String()
}

func quoteTerm(term string) string {
	if strings.ContainsAny(term, " \t") {
		return `"` + term + `"`
	}
	return term
}

func sortedFormats(legalities map[string]provider.Legality) []string {
	if len(legalities) == 0 {
		return nil
	}
	formats := make([]string, 0, len(legalities))
	for format := range legalities {
		formats = append(formats, format)
	}
	// Stable query strings keep request logs and tests deterministic.
	sort.Strings(formats)
	return formats
}
