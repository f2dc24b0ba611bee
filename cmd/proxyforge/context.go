package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"proxyforge/internal/config"
	"proxyforge/internal/deck"
	"proxyforge/internal/fetch"
	"proxyforge/internal/imagecache"
	"proxyforge/internal/logging"
	"proxyforge/internal/provider"
	"proxyforge/internal/provider/pokemontcg"
	"proxyforge/internal/provider/scryfall"
	"proxyforge/internal/search"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// newRegistry builds the provider adapters from the loaded configuration.
func (c *commandContext) newRegistry() (provider.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return provider.Registry{}, err
	}

	fetcher := fetch.NewClient(
		fetch.WithMaxRetries(cfg.Search.MaxRetries),
		fetch.WithBaseDelay(time.Duration(cfg.Search.RetryBaseDelayMS)*time.Millisecond),
	)

	scry, err := scryfall.New(cfg.Providers.Scryfall.BaseURL, fetcher,
		scryfall.WithRateLimitDelay(time.Duration(cfg.Search.RateLimitDelayMS)*time.Millisecond))
	if err != nil {
		return provider.Registry{}, fmt.Errorf("scryfall client: %w", err)
	}
	poke, err := pokemontcg.New(cfg.Providers.Pokemon.BaseURL, cfg.Providers.Pokemon.APIKey, fetcher)
	if err != nil {
		return provider.Registry{}, fmt.Errorf("pokemontcg client: %w", err)
	}

	return provider.NewRegistry(scry, poke)
}

func (c *commandContext) newOrchestrator(collection *deck.Collection) (*search.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	registry, err := c.newRegistry()
	if err != nil {
		return nil, err
	}
	return search.NewOrchestrator(registry, collection,
		search.WithConcurrency(cfg.Search.Concurrency),
		search.WithLogger(logger)), nil
}

func (c *commandContext) openImageStore() (*imagecache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return imagecache.Open(cfg.ImageCachePath(),
		imagecache.WithTTL(time.Duration(cfg.ImageCache.TTLDays)*24*time.Hour))
}

func (c *commandContext) newImageFetcher(store *imagecache.Store) (*imagecache.Fetcher, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return imagecache.NewFetcher(store, fetch.NewClient(), logger)
}
