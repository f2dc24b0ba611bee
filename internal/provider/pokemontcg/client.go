package pokemontcg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"proxyforge/internal/card"
	"proxyforge/internal/fetch"
	"proxyforge/internal/provider"
)

// ProviderID is the registry key for this adapter.
const ProviderID = "pokemontcg"

// Client provides access to the Pokemon TCG card search API.
//
// The API has no card-face concept, so normalized cards are never
// double-faced.
type Client struct {
	baseURL string
	apiKey  string
	fetcher *fetch.Client
}

var _ provider.Provider = (*Client)(nil)

// New creates a Pokemon TCG client. The API key is optional; when set it is
// sent as X-Api-Key and raises the upstream rate limit.
func New(baseURL, apiKey string, fetcher *fetch.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("pokemontcg base url required")
	}
	if fetcher == nil {
		return nil, errors.New("pokemontcg fetch client required")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		fetcher: fetcher,
	}, nil
}

// ID returns the registry key for this adapter.
func (c *Client) ID() string { return ProviderID }

// Search performs an exact-name card lookup. Ordering options map to the
// single orderBy parameter, with descending direction encoded as a leading
// minus sign.
func (c *Client) Search(ctx context.Context, query string, opts provider.Options) ([]card.Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	endpoint, err := url.Parse(c.baseURL + "/cards")
	if err != nil {
		return nil, fmt.Errorf("parse pokemontcg url: %w", err)
	}
	params := url.Values{}
	params.Set("q", fmt.Sprintf("name:%q", query))
	if orderBy := combineOrder(opts.Pokemon); orderBy != "" {
		params.Set("orderBy", orderBy)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.fetcher.Do(ctx, req)
	if err != nil {
		if fetch.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("pokemontcg search: %w", err)
	}
	defer resp.Body.Close()

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode pokemontcg response: %w", err)
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

// combineOrder folds the order field and direction into the API's single
// orderBy parameter; descending is a "-" prefix.
func combineOrder(options *provider.PokemonOptions) string {
	if options == nil {
		return ""
	}
	field := strings.TrimSpace(options.OrderBy)
	if field == "" {
		return ""
	}
	if strings.EqualFold(strings.TrimSpace(options.Dir), "desc") {
		return "-" + field
	}
	return field
}

type searchResponse struct {
	Data []cardEntry `json:"data"`
}

type cardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Set    struct {
		Name string `json:"name"`
	} `json:"set"`
	Images struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
}

func normalize(entry cardEntry) card.Card {
	front := entry.Images.Large
	if front == "" {
		front = entry.Images.Small
	}
	return card.Card{
		ID:            entry.ID,
		Name:          entry.Name,
		Set:           entry.Set.Name,
		Artist:        entry.Artist,
		ImageURIs:     card.ImageURIs{Front: front},
		IsDoubleFaced: false,
		SourceURL:     "https://pokemontcg.io/cards/" + entry.ID,
	}
}
