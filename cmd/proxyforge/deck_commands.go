package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"proxyforge/internal/deck"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var quantity int
	var providerID string

	cmd := &cobra.Command{
		Use:   "add <query>",
		Short: "Add a card row to the deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query must not be empty")
			}
			return ctx.withDeck(func(collection *deck.Collection) error {
				row := collection.AddRow()
				update := deck.RowUpdate{Query: &query}
				if quantity > 0 {
					update.Quantity = &quantity
				}
				if providerID != "" {
					update.ProviderID = &providerID
				}
				if err := collection.UpdateRow(row.ID, update); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q (row %d)\n", query, collection.Len())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "Number of copies to print")
	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "Card data provider for this row")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the deck rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeckReadOnly(func(collection *deck.Collection) error {
				rows := collection.Rows()
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "Deck is empty. Use 'proxyforge add' to add a card.")
					return nil
				}

				headers := []string{"#", "Query", "Qty", "Provider", "Status", "Card"}
				aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
				display := make([][]string, 0, len(rows))
				for i, row := range rows {
					status := styledStatus(out, row.Status)
					if row.Status == deck.StatusError && row.Err != "" {
						status += ": " + row.Err
					}
					display = append(display, []string{
						fmt.Sprintf("%d", i+1),
						truncate(row.Query, 40),
						fmt.Sprintf("%d", row.Quantity),
						row.ProviderID,
						status,
						truncate(cardSummary(row), 48),
					})
				}
				fmt.Fprintln(out, renderTable(out, headers, display, aligns))
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <row>...",
		Short: "Remove rows from the deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeck(func(collection *deck.Collection) error {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					row, err := rowAt(collection, arg)
					if err != nil {
						return err
					}
					ids = append(ids, row.ID)
				}
				if err := collection.RemoveRows(ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d row(s)\n", len(ids))
				return nil
			})
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var query string
	var quantity int
	var providerID string

	cmd := &cobra.Command{
		Use:   "update <row>",
		Short: "Edit a deck row",
		Long: `Edit a row's query, quantity, or provider. Edits never clear the
resolved card; run 'proxyforge search' to re-resolve after changing the query.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("query") && !cmd.Flags().Changed("quantity") && !cmd.Flags().Changed("provider") {
				return fmt.Errorf("nothing to update; pass --query, --quantity, or --provider")
			}
			return ctx.withDeck(func(collection *deck.Collection) error {
				row, err := rowAt(collection, args[0])
				if err != nil {
					return err
				}
				update := deck.RowUpdate{}
				if cmd.Flags().Changed("query") {
					update.Query = &query
				}
				if cmd.Flags().Changed("quantity") {
					update.Quantity = &quantity
				}
				if cmd.Flags().Changed("provider") {
					update.ProviderID = &providerID
				}
				if err := collection.UpdateRow(row.ID, update); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated row %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "New search query")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "Number of copies to print")
	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "Card data provider for this row")
	return cmd
}
