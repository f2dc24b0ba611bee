package main

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"proxyforge/internal/deck"
)

var titleCaser = cases.Title(language.Und)

func displayStatus(status deck.Status) string {
	return titleCaser.String(string(status))
}

// rowAt resolves a 1-based position argument into a row.
func rowAt(collection *deck.Collection, arg string) (deck.Row, error) {
	position, err := strconv.Atoi(arg)
	if err != nil {
		return deck.Row{}, fmt.Errorf("row position %q is not a number", arg)
	}
	rows := collection.Rows()
	if position < 1 || position > len(rows) {
		return deck.Row{}, fmt.Errorf("row position %d out of range (deck has %d rows)", position, len(rows))
	}
	return rows[position-1], nil
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func cardSummary(row deck.Row) string {
	if row.Card == nil {
		return ""
	}
	summary := row.Card.Name
	if row.Card.Set != "" {
		summary += " (" + row.Card.Set + ")"
	}
	return summary
}
