package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"proxyforge/internal/deck"
	"proxyforge/internal/spreadsheet"
)

// withDeck loads the persisted deck into a collection, runs fn, and writes
// the result back. The whole read-modify-write cycle holds an advisory file
// lock so concurrent invocations cannot clobber each other's edits.
func (c *commandContext) withDeck(fn func(*deck.Collection) error) error {
	return c.deckSession(true, fn)
}

// withDeckReadOnly loads the deck without writing it back afterwards.
func (c *commandContext) withDeckReadOnly(fn func(*deck.Collection) error) error {
	return c.deckSession(false, fn)
}

func (c *commandContext) deckSession(save bool, fn func(*deck.Collection) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	deckPath := cfg.DeckPath()
	lock := flock.New(deckPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock deck file: %w", err)
	}
	defer lock.Unlock()

	collection := deck.NewCollection(cfg.Providers.Default)
	if err := loadDeck(deckPath, collection); err != nil {
		return err
	}

	if err := fn(collection); err != nil {
		return err
	}
	if !save {
		return nil
	}
	return saveDeck(deckPath, collection)
}

func loadDeck(path string, collection *deck.Collection) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open deck file: %w", err)
	}
	defer file.Close()

	rows, err := spreadsheet.Import(file)
	if err != nil {
		return fmt.Errorf("read deck file %s: %w", path, err)
	}
	collection.Replace(rows)
	return nil
}

// saveDeck writes atomically via a temp file in the same directory.
func saveDeck(path string, collection *deck.Collection) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "deck-*.csv")
	if err != nil {
		return fmt.Errorf("create temp deck file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := spreadsheet.Export(tmp, collection.Rows()); err != nil {
		tmp.Close()
		return fmt.Errorf("write deck file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close deck file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace deck file: %w", err)
	}
	return nil
}
