package provider

import (
	"context"

	"proxyforge/internal/card"
)

// Provider resolves a free-text card query against one upstream card-data
// API and normalizes the response into canonical card records.
//
// Contract:
//   - zero matches (including an upstream 404) return (nil, nil), not an
//     error;
//   - any other upstream failure returns an error that wraps
//     *fetch.StatusError when an HTTP status is known, so callers can
//     classify it;
//   - adapters do not retry or rate-limit on their own beyond the
//     documented post-search delay; transport policy lives in the fetch
//     client they are constructed with.
type Provider interface {
	ID() string
	Search(ctx context.Context, query string, opts Options) ([]card.Card, error)
}
