// Package spreadsheet persists a deck as CSV. The format is
// self-describing (header row) and round-trips resolved card data, so a
// re-imported deck does not need to repeat its searches.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"proxyforge/internal/card"
	"proxyforge/internal/deck"
)

// ErrMalformed wraps any parse failure so callers can distinguish bad
// input from IO errors.
var ErrMalformed = errors.New("spreadsheet: malformed deck file")

var header = []string{
	"query",
	"quantity",
	"providerId",
	"cardId",
	"cardName",
	"cardSet",
	"cardArtist",
	"cardImageFront",
	"cardImageBack",
	"cardIsDfc",
	"cardUrl",
}

// Export writes the deck rows as CSV. Unresolved rows leave the card
// columns empty.
func Export(w io.Writer, rows []deck.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Query,
			strconv.Itoa(row.Quantity),
			row.ProviderID,
			"", "", "", "", "", "", "", "",
		}
		if row.Card != nil {
			c := row.Card
			record[3] = c.ID
			record[4] = c.Name
			record[5] = c.Set
			record[6] = c.Artist
			record[7] = c.ImageURIs.Front
			record[8] = c.ImageURIs.Back
			record[9] = strconv.FormatBool(c.IsDoubleFaced)
			record[10] = c.SourceURL
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import parses a deck CSV back into rows. Rows with a cardId come back
// found with the card rebuilt from the record; rows without one, or whose
// card record fails validation, come back idle. Any structural problem
// returns an error wrapping ErrMalformed.
func Import(r io.Reader) ([]deck.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkHeader(first); err != nil {
		return nil, err
	}

	var rows []deck.Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkHeader(record []string) error {
	for i, name := range header {
		if strings.TrimSpace(record[i]) != name {
			return fmt.Errorf("%w: header column %d is %q, expected %q", ErrMalformed, i+1, record[i], name)
		}
	}
	return nil
}

func parseRecord(record []string) (deck.Row, error) {
	quantity, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return deck.Row{}, fmt.Errorf("quantity %q: %v", record[1], err)
	}
	if quantity < 1 {
		return deck.Row{}, fmt.Errorf("quantity %d below 1", quantity)
	}

	row := deck.Row{
		Query:      record[0],
		Quantity:   quantity,
		ProviderID: strings.TrimSpace(record[2]),
		Status:     deck.StatusIdle,
	}

	if id := strings.TrimSpace(record[3]); id != "" {
		isDFC := false
		if raw := strings.TrimSpace(record[9]); raw != "" {
			isDFC, err = strconv.ParseBool(raw)
			if err != nil {
				return deck.Row{}, fmt.Errorf("cardIsDfc %q: %v", record[9], err)
			}
		}
		c := card.Card{
			ID:     id,
			Name:   record[4],
			Set:    record[5],
			Artist: record[6],
			ImageURIs: card.ImageURIs{
				Front: record[7],
				Back:  record[8],
			},
			IsDoubleFaced: isDFC,
			SourceURL:     record[10],
		}
		// Incomplete card data (a missing image URL, say) is not worth
		// rejecting the whole file over; the row comes back idle and can
		// be searched again.
		if err := c.Validate(); err == nil {
			row.Card = &c
			row.SearchResults = []card.Card{c}
			row.Status = deck.StatusFound
		}
	}

	return row, nil
}
