package scryfall

import (
	"proxyforge/internal/card"
)

type searchResponse struct {
	Data []cardEntry `json:"data"`
}

type cardEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	SetName     string     `json:"set_name"`
	Artist      string     `json:"artist"`
	ScryfallURI string     `json:"scryfall_uri"`
	ImageURIs   *imageURIs `json:"image_uris"`
	CardFaces   []cardFace `json:"card_faces"`
}

type cardFace struct {
	Name      string     `json:"name"`
	ImageURIs *imageURIs `json:"image_uris"`
}

type imageURIs struct {
	Large  string `json:"large"`
	Normal string `json:"normal"`
}

func (u *imageURIs) best() string {
	if u == nil {
		return ""
	}
	if u.Large != "" {
		return u.Large
	}
	return u.Normal
}

// normalize maps a Scryfall response entry into the canonical record. The
// front image comes from the top-level image_uris, or from the first face of
// a multi-face card. A card is double-faced exactly when a second face with
// its own images exists.
func normalize(entry cardEntry) card.Card {
	front := entry.ImageURIs
	if front == nil && len(entry.CardFaces) > 0 {
		front = entry.CardFaces[0].ImageURIs
	}

	var back *imageURIs
	if len(entry.CardFaces) > 1 {
		back = entry.CardFaces[1].ImageURIs
	}

	return card.Card{
		ID:     entry.ID,
		Name:   entry.Name,
		Set:    entry.SetName,
		Artist: entry.Artist,
		ImageURIs: card.ImageURIs{
			Front: front.best(),
			Back:  back.best(),
		},
		IsDoubleFaced: back.best() != "",
		SourceURL:     entry.ScryfallURI,
	}
}
