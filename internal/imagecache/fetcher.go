package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"proxyforge/internal/fetch"
	"proxyforge/internal/logging"
)

// maxImageBytes bounds a single downloaded image. Card scans sit well under
// this; anything larger is a broken upstream.
const maxImageBytes = 32 << 20

// Fetcher is the get-through layer over the store: cache hit returns a
// handle, cache miss downloads the raw bytes through the resilient fetch
// client and populates the store before returning.
type Fetcher struct {
	store  *Store
	client *fetch.Client
	logger *slog.Logger
}

// NewFetcher builds a get-through fetcher.
func NewFetcher(store *Store, client *fetch.Client, logger *slog.Logger) (*Fetcher, error) {
	if store == nil {
		return nil, errors.New("image cache: store required")
	}
	if client == nil {
		return nil, errors.New("image cache: fetch client required")
	}
	return &Fetcher{
		store:  store,
		client: client,
		logger: logging.WithComponent(logger, "imagecache"),
	}, nil
}

// Fetch returns a handle for the image at url, downloading and caching it
// on miss.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Handle, error) {
	if url == "" {
		return nil, errors.New("image cache: url required")
	}

	handle, err := f.store.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if handle != nil {
		return handle, nil
	}

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("image cache: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("image cache: read image %s: %w", url, err)
	}

	if err := f.store.Set(ctx, url, blob); err != nil {
		// A failed cache write should not fail the display path.
		f.logger.Warn("cache write failed", logging.String("url", url), logging.Error(err))
	}
	return &Handle{URL: url, data: blob}, nil
}
