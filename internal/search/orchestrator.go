// Package search drives card resolution for deck rows: it looks up the
// row's provider, runs the query, and writes the outcome back through the
// collection's generation-fenced completion methods. Batch searches fan
// out over a bounded worker pool and report aggregate progress.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"proxyforge/internal/deck"
	"proxyforge/internal/logging"
	"proxyforge/internal/provider"
)

// User-facing failure messages stored on rows. Provider error details go
// to the log, not the row.
const (
	msgNoCardsFound  = "no cards found"
	msgFailedToFetch = "failed to fetch"
)

// Outcome classifies how a single row search ended.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeError
	OutcomeMultiple
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeError:
		return "error"
	case OutcomeMultiple:
		return "multiple"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

const defaultConcurrency = 4

// Orchestrator resolves deck rows against registered providers.
type Orchestrator struct {
	registry    provider.Registry
	collection  *deck.Collection
	logger      *slog.Logger
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency caps the number of rows searched in parallel during a
// batch. Values below 1 fall back to the default.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.concurrency = n
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logging.WithComponent(logger, "search")
		}
	}
}

// NewOrchestrator wires a registry and a collection together.
func NewOrchestrator(registry provider.Registry, collection *deck.Collection, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    registry,
		collection:  collection,
		logger:      logging.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SearchRow resolves one row. The returned error covers preconditions
// (unknown row, blank query, row already loading); provider failures are
// recorded on the row itself and reported as OutcomeError.
func (o *Orchestrator) SearchRow(ctx context.Context, id string) (Outcome, error) {
	row, ok := o.collection.Get(id)
	if !ok {
		return OutcomeError, fmt.Errorf("search: no row %s", id)
	}
	query := strings.TrimSpace(row.Query)
	if query == "" {
		return OutcomeError, fmt.Errorf("search: row %s has an empty query", id)
	}

	gen, err := o.collection.BeginSearch(id)
	if err != nil {
		return OutcomeError, err
	}
	return o.run(ctx, id, gen, query, row)
}

func (o *Orchestrator) run(ctx context.Context, id string, gen uint64, query string, row deck.Row) (Outcome, error) {
	prov, ok := o.registry.Get(row.ProviderID)
	if !ok {
		o.logger.Warn("unknown provider", logging.String("row", id), logging.String("provider", row.ProviderID))
		return OutcomeError, o.collection.CompleteError(id, gen, fmt.Sprintf("unknown provider %q", row.ProviderID))
	}

	cards, err := prov.Search(ctx, query, row.Options)
	if err != nil {
		o.logger.Warn("provider search failed",
			logging.String("row", id),
			logging.String("provider", row.ProviderID),
			logging.String("query", query),
			logging.Error(err))
		return OutcomeError, o.collection.CompleteError(id, gen, msgFailedToFetch)
	}

	switch len(cards) {
	case 0:
		o.logger.Debug("no matches", logging.String("row", id), logging.String("query", query))
		return OutcomeError, o.collection.CompleteError(id, gen, msgNoCardsFound)
	case 1:
		return OutcomeFound, o.collection.CompleteFound(id, gen, cards[0], cards)
	default:
		o.logger.Debug("ambiguous matches",
			logging.String("row", id),
			logging.String("query", query),
			logging.Int("candidates", len(cards)))
		return OutcomeMultiple, o.collection.CompleteMultiple(id, gen, cards)
	}
}

// SearchAll resolves every searchable row (non-blank query, not already
// loading or resolved) over a bounded worker pool. When ids is non-empty
// only those rows are considered, and resolved rows are searched again. The observer, if non-nil, is called after each row
// completes; the final snapshot is returned.
//
// Rows are claimed up front via BeginSearch so a concurrent caller cannot
// double-search them; the workers then only perform provider IO and the
// fenced completion writes.
func (o *Orchestrator) SearchAll(ctx context.Context, ids []string, observer func(ProgressSnapshot)) (ProgressSnapshot, error) {
	type job struct {
		id    string
		gen   uint64
		query string
		row   deck.Row
	}

	var jobs []job
	explicit := len(ids) > 0
	for _, row := range o.selectRows(ids) {
		query := strings.TrimSpace(row.Query)
		if query == "" {
			continue
		}
		// A sweep leaves resolved rows alone; re-searching one takes an
		// explicit request.
		if !explicit && row.Status == deck.StatusFound {
			continue
		}
		gen, err := o.collection.BeginSearch(row.ID)
		if err != nil {
			// Already loading, or removed since the snapshot; skip it.
			o.logger.Debug("skipping row", logging.String("row", row.ID), logging.Error(err))
			continue
		}
		jobs = append(jobs, job{id: row.ID, gen: gen, query: query, row: row})
	}

	progress := NewProgress(len(jobs), observer)

	sem := make(chan struct{}, o.concurrency)
	done := make(chan struct{})
	for _, j := range jobs {
		go func(j job) {
			defer func() { done <- struct{}{} }()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome, err := o.run(ctx, j.id, j.gen, j.query, j.row)
			if err != nil {
				o.logger.Warn("completion rejected", logging.String("row", j.id), logging.Error(err))
				outcome = OutcomeError
			}
			progress.complete(outcome)
		}(j)
	}
	for range jobs {
		<-done
	}

	snapshot := progress.Snapshot()
	o.logger.Info("batch search finished",
		logging.Int("total", snapshot.Total),
		logging.Int("found", snapshot.Found),
		logging.Int("failed", snapshot.Failed),
		logging.Int("pending", snapshot.Pending))
	return snapshot, ctx.Err()
}

func (o *Orchestrator) selectRows(ids []string) []deck.Row {
	rows := o.collection.Rows()
	if len(ids) == 0 {
		return rows
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := rows[:0]
	for _, row := range rows {
		if wanted[row.ID] {
			selected = append(selected, row)
		}
	}
	return selected
}
