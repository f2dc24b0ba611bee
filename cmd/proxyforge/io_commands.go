package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"proxyforge/internal/config"
	"proxyforge/internal/deck"
	"proxyforge/internal/sheet"
	"proxyforge/internal/spreadsheet"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the deck with rows from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			rows, err := spreadsheet.Import(file)
			if err != nil {
				return err
			}

			// Unknown provider ids fall back to the configured default.
			registry, err := ctx.newRegistry()
			if err != nil {
				return err
			}
			for i := range rows {
				if rows[i].ProviderID == "" {
					continue
				}
				if _, ok := registry.Get(rows[i].ProviderID); !ok {
					rows[i].ProviderID = ""
				}
			}

			return ctx.withDeck(func(collection *deck.Collection) error {
				collection.Replace(rows)
				resolved := 0
				for _, row := range collection.Rows() {
					if row.Status == deck.StatusFound {
						resolved++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d row(s), %d already resolved\n", len(rows), resolved)
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the deck to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withDeckReadOnly(func(collection *deck.Collection) error {
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()

				if err := spreadsheet.Export(file, collection.Rows()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", collection.Len(), path)
				return nil
			})
		},
	}
}

func newPrintCommand(ctx *commandContext) *cobra.Command {
	var output string
	var title string

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render the deck as a printable HTML sheet",
		Long: `Lay every resolved card out on 3x3 pages and write a single HTML
file with the images inlined. Double-faced cards contribute their back
face as a separate cut-out. Open the file in a browser and print it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(output)
			if err != nil {
				return err
			}
			return ctx.withDeckReadOnly(func(collection *deck.Collection) error {
				store, err := ctx.openImageStore()
				if err != nil {
					return err
				}
				defer store.Close()

				fetcher, err := ctx.newImageFetcher(store)
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				renderer, err := sheet.NewRenderer(fetcher, logger)
				if err != nil {
					return err
				}

				rows := collection.Rows()
				faces := sheet.Build(rows)
				if len(faces) == 0 {
					return fmt.Errorf("no resolved cards to print; run 'proxyforge search' first")
				}

				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer file.Close()

				if err := renderer.Render(cmd.Context(), file, rows, title); err != nil {
					return err
				}

				pages := (len(faces) + sheet.CardsPerPage - 1) / sheet.CardsPerPage
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d card face(s) on %d page(s) to %s\n", len(faces), pages, path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", filepath.Join(".", "proxies.html"), "Output HTML file")
	cmd.Flags().StringVarP(&title, "title", "t", "proxyforge sheet", "Document title")
	return cmd
}
