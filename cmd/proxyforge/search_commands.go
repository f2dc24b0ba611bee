package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"proxyforge/internal/deck"
	"proxyforge/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	options := &searchOptionFlags{}
	cmd := &cobra.Command{
		Use:   "search [row]...",
		Short: "Resolve deck rows against their card providers",
		Long: `Search the configured providers for each row's query. Without
arguments every row with a query is searched; pass row positions to
search a subset. Rows matching several printings are marked Multiple and
can be settled with 'proxyforge resolve'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeck(func(collection *deck.Collection) error {
				orchestrator, err := ctx.newOrchestrator(collection)
				if err != nil {
					return err
				}

				var ids []string
				for _, arg := range args {
					row, err := rowAt(collection, arg)
					if err != nil {
						return err
					}
					ids = append(ids, row.ID)
				}

				if err := applySearchOptions(cmd, collection, options, ids); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				progress := func(s search.ProgressSnapshot) {
					fmt.Fprintf(out, "Searched %d/%d (found %d, failed %d, pending %d)\n",
						s.Current, s.Total, s.Found, s.Failed, s.Pending)
				}
				snapshot, err := orchestrator.SearchAll(cmd.Context(), ids, progress)
				if err != nil {
					return err
				}
				if snapshot.Total == 0 {
					fmt.Fprintln(out, "Nothing to search. Add rows with a query first.")
					return nil
				}

				if snapshot.Pending > 0 {
					fmt.Fprintf(out, "%d row(s) matched several printings; run 'proxyforge resolve <row> <pick>' to settle them.\n", snapshot.Pending)
				}
				if snapshot.Failed > 0 {
					fmt.Fprintf(out, "%d row(s) failed; see 'proxyforge list' for details.\n", snapshot.Failed)
				}
				return nil
			})
		},
	}
	options.register(cmd)
	return cmd
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	options := &searchOptionFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <row> [pick]",
		Short: "Pick a printing for an ambiguous row",
		Long: `Re-run the row's search and settle it on one candidate. Without a
pick the candidates are listed; with a 1-based pick the chosen printing
is stored on the row.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeck(func(collection *deck.Collection) error {
				orchestrator, err := ctx.newOrchestrator(collection)
				if err != nil {
					return err
				}
				row, err := rowAt(collection, args[0])
				if err != nil {
					return err
				}

				if err := applySearchOptions(cmd, collection, options, []string{row.ID}); err != nil {
					return err
				}

				outcome, err := orchestrator.SearchRow(cmd.Context(), row.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				switch outcome {
				case search.OutcomeFound:
					updated, _ := collection.Get(row.ID)
					fmt.Fprintf(out, "Row %s resolved to %s\n", args[0], cardSummary(updated))
					return nil
				case search.OutcomeError:
					updated, _ := collection.Get(row.ID)
					return fmt.Errorf("search failed for row %s: %s", args[0], updated.Err)
				}

				updated, _ := collection.Get(row.ID)
				if len(args) == 1 {
					printCandidates(cmd, args[0], updated)
					return nil
				}

				pick, err := parsePick(args[1], len(updated.SearchResults))
				if err != nil {
					return err
				}
				if err := collection.Resolve(row.ID, updated.SearchResults[pick-1]); err != nil {
					return err
				}
				final, _ := collection.Get(row.ID)
				fmt.Fprintf(out, "Row %s resolved to %s\n", args[0], cardSummary(final))
				return nil
			})
		},
	}
	options.register(cmd)
	return cmd
}

// applySearchOptions stores the flag-built search refinements on the rows
// about to be searched. An empty ids slice means every row with a query.
func applySearchOptions(cmd *cobra.Command, collection *deck.Collection, options *searchOptionFlags, ids []string) error {
	if !options.anySet(cmd) {
		return nil
	}
	built, err := options.build()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		for _, row := range collection.Rows() {
			if strings.TrimSpace(row.Query) == "" {
				continue
			}
			ids = append(ids, row.ID)
		}
	}
	for _, id := range ids {
		if err := collection.UpdateRow(id, deck.RowUpdate{Options: &built}); err != nil {
			return err
		}
	}
	return nil
}

func parsePick(arg string, candidates int) (int, error) {
	var pick int
	if _, err := fmt.Sscanf(arg, "%d", &pick); err != nil {
		return 0, fmt.Errorf("pick %q is not a number", arg)
	}
	if pick < 1 || pick > candidates {
		return 0, fmt.Errorf("pick %d out of range (1-%d)", pick, candidates)
	}
	return pick, nil
}

func printCandidates(cmd *cobra.Command, position string, row deck.Row) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Row %s matches %d printings:\n", position, len(row.SearchResults))
	headers := []string{"Pick", "Name", "Set", "Artist"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
	display := make([][]string, 0, len(row.SearchResults))
	for i, candidate := range row.SearchResults {
		display = append(display, []string{
			fmt.Sprintf("%d", i+1),
			truncate(candidate.Name, 48),
			candidate.Set,
			truncate(candidate.Artist, 30),
		})
	}
	fmt.Fprintln(out, renderTable(out, headers, display, aligns))
	fmt.Fprintf(out, "Run 'proxyforge resolve %s <pick>' to choose one.\n", position)
}
