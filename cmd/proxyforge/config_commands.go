package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"proxyforge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set a Pokemon TCG API key if you plan to use that provider.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			headers := []string{"Setting", "Value"}
			rows := [][]string{
				{"paths.data_dir", cfg.Paths.DataDir},
				{"paths.cache_dir", cfg.Paths.CacheDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"providers.default", cfg.Providers.Default},
				{"providers.scryfall.base_url", cfg.Providers.Scryfall.BaseURL},
				{"providers.pokemontcg.base_url", cfg.Providers.Pokemon.BaseURL},
				{"providers.pokemontcg.api_key", maskSecret(cfg.Providers.Pokemon.APIKey)},
				{"search.concurrency", fmt.Sprintf("%d", cfg.Search.Concurrency)},
				{"search.max_retries", fmt.Sprintf("%d", cfg.Search.MaxRetries)},
				{"search.retry_base_delay_ms", fmt.Sprintf("%d", cfg.Search.RetryBaseDelayMS)},
				{"search.rate_limit_delay_ms", fmt.Sprintf("%d", cfg.Search.RateLimitDelayMS)},
				{"image_cache.ttl_days", fmt.Sprintf("%d", cfg.ImageCache.TTLDays)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable(out, headers, rows, nil))
			return nil
		},
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
