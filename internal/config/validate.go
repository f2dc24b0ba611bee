package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateImageCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir is required")
	}
	if c.Paths.CacheDir == "" {
		return fmt.Errorf("paths.cache_dir is required")
	}
	return nil
}

func (c *Config) validateProviders() error {
	switch c.Providers.Default {
	case "scryfall", "pokemontcg":
	case "":
		return fmt.Errorf("providers.default is required")
	default:
		return fmt.Errorf("providers.default: unknown provider %q", c.Providers.Default)
	}
	if c.Providers.Scryfall.BaseURL == "" {
		return fmt.Errorf("providers.scryfall.base_url is required")
	}
	if c.Providers.Pokemon.BaseURL == "" {
		return fmt.Errorf("providers.pokemontcg.base_url is required")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Concurrency < 1 {
		return fmt.Errorf("search.concurrency must be at least 1, got %d", c.Search.Concurrency)
	}
	if c.Search.MaxRetries < 0 {
		return fmt.Errorf("search.max_retries must not be negative, got %d", c.Search.MaxRetries)
	}
	if c.Search.RetryBaseDelayMS < 0 {
		return fmt.Errorf("search.retry_base_delay_ms must not be negative, got %d", c.Search.RetryBaseDelayMS)
	}
	if c.Search.RateLimitDelayMS < 0 {
		return fmt.Errorf("search.rate_limit_delay_ms must not be negative, got %d", c.Search.RateLimitDelayMS)
	}
	return nil
}

func (c *Config) validateImageCache() error {
	if c.ImageCache.TTLDays < 1 {
		return fmt.Errorf("image_cache.ttl_days must be at least 1, got %d", c.ImageCache.TTLDays)
	}
	return nil
}
