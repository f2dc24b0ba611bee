package config

const (
	defaultDataDir          = "~/.local/share/proxyforge"
	defaultCacheDir         = "~/.cache/proxyforge"
	defaultLogDir           = "~/.local/share/proxyforge/logs"
	defaultProvider         = "scryfall"
	defaultScryfallBaseURL  = "https://api.scryfall.com"
	defaultPokemonBaseURL   = "https://api.pokemontcg.io/v2"
	defaultConcurrency      = 4
	defaultMaxRetries       = 3
	defaultRetryBaseDelayMS = 1000
	defaultRateLimitDelayMS = 100
	defaultImageTTLDays     = 7
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Providers: Providers{
			Default: defaultProvider,
			Scryfall: Scryfall{
				BaseURL: defaultScryfallBaseURL,
			},
			Pokemon: Pokemon{
				BaseURL: defaultPokemonBaseURL,
			},
		},
		Search: Search{
			Concurrency:      defaultConcurrency,
			MaxRetries:       defaultMaxRetries,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
			RateLimitDelayMS: defaultRateLimitDelayMS,
		},
		ImageCache: ImageCache{
			TTLDays: defaultImageTTLDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
