package deck

// maxHistorySize bounds the undo stack; the oldest snapshot is discarded
// once the cap is reached.
const maxHistorySize = 50

// history keeps bounded undo/redo snapshots of the row list. Only
// structural edits are recorded; search status churn never lands here.
// Callers hold the collection lock.
type history struct {
	past    [][]Row
	present []Row
	future  [][]Row
}

func newHistory() *history {
	return &history{present: []Row{}}
}

func (h *history) record(rows []Row) {
	h.past = append(h.past, h.present)
	if len(h.past) > maxHistorySize {
		h.past = h.past[len(h.past)-maxHistorySize:]
	}
	h.present = rows
	h.future = nil
}

func (h *history) undo() ([]Row, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	h.future = append(h.future, h.present)
	h.present = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return cloneRows(h.present), true
}

func (h *history) redo() ([]Row, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	h.past = append(h.past, h.present)
	h.present = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return cloneRows(h.present), true
}

func (h *history) canUndo() bool { return len(h.past) > 0 }

func (h *history) canRedo() bool { return len(h.future) > 0 }

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.clone()
	}
	return out
}
