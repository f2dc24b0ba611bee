package card

import (
	"errors"
	"strings"
)

// ImageURIs holds the printable face images for a card. Front is always set
// for a valid card; Back is set only for double-faced cards.
type ImageURIs struct {
	Front string
	Back  string
}

// Card is the provider-independent card record produced by provider
// normalization. Instances are value objects: rows reference them but never
// mutate them.
type Card struct {
	ID            string
	Name          string
	Set           string
	Artist        string
	ImageURIs     ImageURIs
	IsDoubleFaced bool
	SourceURL     string
}

// ErrInvalidCard indicates a card record that violates the face invariants.
var ErrInvalidCard = errors.New("invalid card record")

// Validate enforces the card invariants: a front image must always resolve,
// and a back image is present exactly when the card is double-faced.
func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.Join(ErrInvalidCard, errors.New("card id required"))
	}
	if strings.TrimSpace(c.ImageURIs.Front) == "" {
		return errors.Join(ErrInvalidCard, errors.New("front image required"))
	}
	if c.IsDoubleFaced && strings.TrimSpace(c.ImageURIs.Back) == "" {
		return errors.Join(ErrInvalidCard, errors.New("double-faced card missing back image"))
	}
	if !c.IsDoubleFaced && strings.TrimSpace(c.ImageURIs.Back) != "" {
		return errors.Join(ErrInvalidCard, errors.New("single-faced card carries back image"))
	}
	return nil
}

// BackFace derives a single-faced record for the back of a double-faced card.
// Print layout treats the back as an independent image entry. The second
// return value reports whether a back face exists.
func (c Card) BackFace() (Card, bool) {
	if !c.IsDoubleFaced || c.ImageURIs.Back == "" {
		return Card{}, false
	}
	back := c
	back.ID = c.ID + "-back"
	back.ImageURIs = ImageURIs{Front: c.ImageURIs.Back}
	back.IsDoubleFaced = false
	return back, true
}
