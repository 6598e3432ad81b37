package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDeck(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing deck file: %v", err)
	}
}

func TestNewManager_BuiltinOnly(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	deck := m.GetDefault()
	if deck == nil || len(deck.Questions) == 0 {
		t.Fatal("built-in default deck is empty")
	}

	decks, err := m.ListDecks()
	if err != nil {
		t.Fatalf("ListDecks() error = %v", err)
	}
	if len(decks) != 1 || decks[0].DeckID != "default" {
		t.Errorf("ListDecks() = %+v, want just the default", decks)
	}

	if _, err := m.LoadDeck("anything"); !errors.Is(err, ErrDeckNotFound) {
		t.Errorf("LoadDeck() error = %v, want ErrDeckNotFound", err)
	}
}

func TestNewManager_MissingDir(t *testing.T) {
	if _, err := NewManager("/does/not/exist"); err == nil {
		t.Error("NewManager() accepted a missing directory")
	}
}

func TestLoadDeck_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "movies.json", `{
		"name": "Movie Night",
		"description": "Film trivia",
		"questions": [
			{"text": "Who directed Jaws?", "options": ["Spielberg", "Scorsese", "Lucas"]},
			{"text": "Year of the first Star Wars?", "options": ["1975", "1977", "1980"]}
		]
	}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	deck, err := m.LoadDeck("movies")
	if err != nil {
		t.Fatalf("LoadDeck() error = %v", err)
	}
	if deck.Name != "Movie Night" || len(deck.Questions) != 2 {
		t.Errorf("deck = %+v", deck)
	}

	// Cached load returns the same deck.
	again, err := m.LoadDeck("movies")
	if err != nil {
		t.Fatalf("cached LoadDeck() error = %v", err)
	}
	if again != deck {
		t.Error("LoadDeck() did not serve from cache")
	}
}

func TestLoadDeck_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "empty.json", `{"name": "Empty", "questions": []}`)
	writeDeck(t, dir, "one-option.json", `{"name": "Bad", "questions": [{"text": "Q", "options": ["only"]}]}`)
	writeDeck(t, dir, "garbage.json", `{{{`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := m.LoadDeck("empty"); !errors.Is(err, ErrInvalidDeck) {
		t.Errorf("LoadDeck(empty) error = %v, want ErrInvalidDeck", err)
	}
	if _, err := m.LoadDeck("one-option"); !errors.Is(err, ErrInvalidDeck) {
		t.Errorf("LoadDeck(one-option) error = %v, want ErrInvalidDeck", err)
	}
	if _, err := m.LoadDeck("garbage"); err == nil {
		t.Error("LoadDeck(garbage) succeeded")
	}
}

func TestListDecks_SkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "good.json", `{"name": "Good", "questions": [{"text": "Q", "options": ["a", "b"]}]}`)
	writeDeck(t, dir, "bad.json", `{"name": "", "questions": []}`)
	writeDeck(t, dir, "notes.txt", `not a deck`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	decks, err := m.ListDecks()
	if err != nil {
		t.Fatalf("ListDecks() error = %v", err)
	}

	// Built-in default plus the one valid file.
	if len(decks) != 2 {
		t.Fatalf("ListDecks() returned %d decks, want 2: %+v", len(decks), decks)
	}
	if decks[1].DeckID != "good" || decks[1].Questions != 1 {
		t.Errorf("listed deck = %+v", decks[1])
	}
}

func TestDefaultDeck_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "default.json", `{"name": "House Deck", "questions": [{"text": "Q", "options": ["a", "b"]}]}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := m.GetDefault().Name; got != "House Deck" {
		t.Errorf("default deck = %q, want House Deck", got)
	}
}
