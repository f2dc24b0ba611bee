// Package sheet lays resolved cards out on printable pages. A deck row
// contributes one copy per quantity, and a double-faced card contributes
// its back face alongside each front, so the printed sheet holds every
// physical face that needs cutting out.
package sheet

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"proxyforge/internal/card"
	"proxyforge/internal/deck"
	"proxyforge/internal/imagecache"
	"proxyforge/internal/logging"
)

// CardsPerPage is the 3x3 grid of a standard sheet.
const CardsPerPage = 9

//go:embed sheet.tmpl
var sheetTemplate string

// Build expands resolved rows into the flat list of faces to print.
// Unresolved rows are skipped.
func Build(rows []deck.Row) []card.Card {
	var cards []card.Card
	for _, row := range rows {
		if row.Status != deck.StatusFound || row.Card == nil {
			continue
		}
		for i := 0; i < row.Quantity; i++ {
			cards = append(cards, *row.Card)
			if back, ok := row.Card.BackFace(); ok {
				cards = append(cards, back)
			}
		}
	}
	return cards
}

// Paginate splits cards into pages of perPage entries; perPage below 1
// falls back to CardsPerPage.
func Paginate(cards []card.Card, perPage int) [][]card.Card {
	if perPage < 1 {
		perPage = CardsPerPage
	}
	var pages [][]card.Card
	for len(cards) > 0 {
		n := perPage
		if n > len(cards) {
			n = len(cards)
		}
		pages = append(pages, cards[:n])
		cards = cards[n:]
	}
	return pages
}

// Renderer produces a self-contained HTML sheet with every card image
// inlined, ready for a browser's print dialog.
type Renderer struct {
	fetcher *imagecache.Fetcher
	logger  *slog.Logger
	tmpl    *template.Template
}

// NewRenderer builds a renderer on top of a cache-backed image fetcher.
func NewRenderer(fetcher *imagecache.Fetcher, logger *slog.Logger) (*Renderer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("sheet: fetcher must not be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	tmpl, err := template.New("sheet").Parse(sheetTemplate)
	if err != nil {
		return nil, fmt.Errorf("sheet: parse template: %w", err)
	}
	return &Renderer{
		fetcher: fetcher,
		logger:  logging.WithComponent(logger, "sheet"),
		tmpl:    tmpl,
	}, nil
}

type templateCard struct {
	Name  string
	Image template.URL
}

type templatePage struct {
	Number int
	Cards  []templateCard
}

type templateData struct {
	Title string
	Pages []templatePage
}

// Render writes the printable sheet for the deck. Every distinct image URL
// is fetched once through the cache and inlined; a failed fetch falls back
// to referencing the remote URL so one broken image does not sink the
// whole sheet.
func (r *Renderer) Render(ctx context.Context, w io.Writer, rows []deck.Row, title string) error {
	cards := Build(rows)
	if len(cards) == 0 {
		return fmt.Errorf("sheet: no resolved cards to print")
	}
	pages := Paginate(cards, CardsPerPage)

	images := make(map[string]template.URL)
	for _, c := range cards {
		url := c.ImageURIs.Front
		if _, ok := images[url]; ok {
			continue
		}
		handle, err := r.fetcher.Fetch(ctx, url)
		if err != nil {
			r.logger.Warn("image fetch failed, referencing remote URL",
				logging.String("card", c.Name),
				logging.String("url", url),
				logging.Error(err))
			images[url] = template.URL(url)
			continue
		}
		images[url] = dataURI(handle.Bytes())
		handle.Release()
	}
	r.logger.Debug("images resolved", logging.Int("unique", len(images)), logging.Int("faces", len(cards)))

	data := templateData{Title: title, Pages: make([]templatePage, 0, len(pages))}
	for i, page := range pages {
		tp := templatePage{Number: i + 1, Cards: make([]templateCard, 0, len(page))}
		for _, c := range page {
			tp.Cards = append(tp.Cards, templateCard{Name: c.Name, Image: images[c.ImageURIs.Front]})
		}
		data.Pages = append(data.Pages, tp)
	}
	return r.tmpl.Execute(w, data)
}

func dataURI(blob []byte) template.URL {
	mime := http.DetectContentType(blob)
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob))
}
