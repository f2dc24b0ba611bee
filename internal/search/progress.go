package search

import "sync"

// ProgressSnapshot is a point-in-time view of a batch search. Current is
// the number of rows whose search has finished, regardless of outcome;
// Pending counts rows that completed ambiguously and still need the user
// to pick a printing.
type ProgressSnapshot struct {
	Total   int
	Current int
	Found   int
	Failed  int
	Pending int
}

// Done reports whether every row in the batch has completed.
func (s ProgressSnapshot) Done() bool {
	return s.Current >= s.Total
}

// Progress aggregates per-row outcomes of a batch search. It is safe for
// concurrent use by the orchestrator's workers; observer calls are
// serialized and see each snapshot exactly once, in counter order.
type Progress struct {
	mu       sync.Mutex
	snapshot ProgressSnapshot
	observer func(ProgressSnapshot)
}

// NewProgress builds a tracker for a batch of total rows. The observer may
// be nil.
func NewProgress(total int, observer func(ProgressSnapshot)) *Progress {
	return &Progress{
		snapshot: ProgressSnapshot{Total: total},
		observer: observer,
	}
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Progress) complete(outcome Outcome) {
	p.mu.Lock()
	p.snapshot.Current++
	switch outcome {
	case OutcomeFound:
		p.snapshot.Found++
	case OutcomeError:
		p.snapshot.Failed++
	case OutcomeMultiple:
		p.snapshot.Pending++
	}
	snapshot := p.snapshot
	if p.observer != nil {
		p.observer(snapshot)
	}
	p.mu.Unlock()
}
