// Package config loads quiz decks from a directory of JSON files and
// caches them for session creation. Deck authoring itself happens outside
// the coordinator; this package only reads what authors produced.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/livequiz/quiz/game"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrInvalidDeck  = errors.New("invalid deck")
)

// DeckInfo describes one available deck for listing surfaces.
type DeckInfo struct {
	DeckID      string `json:"deck_id"`
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Questions   int    `json:"questions"`
}

// Manager loads and caches quiz decks. A Manager created with an empty
// directory serves only the built-in default deck.
type Manager struct {
	deckDir     string
	defaultDeck *game.Deck
	decks       map[string]*game.Deck
	mu          sync.RWMutex
}

// NewManager creates a deck manager backed by deckDir. The directory must
// exist when provided; pass "" to run with the built-in deck only.
func NewManager(deckDir string) (*Manager, error) {
	if deckDir != "" {
		if _, err := os.Stat(deckDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("deck directory does not exist: %s", deckDir)
		}
	}

	m := &Manager{
		deckDir: deckDir,
		decks:   make(map[string]*game.Deck),
	}
	m.loadDefaultDeck()

	return m, nil
}

// LoadDeck loads a deck by ID (filename without extension).
func (m *Manager) LoadDeck(name string) (*game.Deck, error) {
	m.mu.RLock()
	if deck, exists := m.decks[name]; exists {
		m.mu.RUnlock()
		return deck, nil
	}
	m.mu.RUnlock()

	if m.deckDir == "" {
		return nil, ErrDeckNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if deck, exists := m.decks[name]; exists {
		return deck, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	data, err := os.ReadFile(filepath.Join(m.deckDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}

	var deck game.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("failed to parse deck: %w", err)
	}

	if err := validateDeck(&deck); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}

	m.decks[name] = &deck
	return &deck, nil
}

// ListDecks returns information about every loadable deck, built-in
// default included.
func (m *Manager) ListDecks() ([]*DeckInfo, error) {
	defaultDeck := m.GetDefault()
	decks := []*DeckInfo{{
		DeckID:      "default",
		Name:        defaultDeck.Name,
		Description: defaultDeck.Description,
		Questions:   len(defaultDeck.Questions),
	}}

	if m.deckDir == "" {
		return decks, nil
	}

	entries, err := os.ReadDir(m.deckDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		deck, err := m.LoadDeck(name)
		if err != nil {
			// Skip invalid decks
			continue
		}

		decks = append(decks, &DeckInfo{
			DeckID:      name,
			Filename:    entry.Name(),
			Name:        deck.Name,
			Description: deck.Description,
			Questions:   len(deck.Questions),
		})
	}

	return decks, nil
}

// GetDefault returns the default deck.
func (m *Manager) GetDefault() *game.Deck {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDeck
}

// loadDefaultDeck prefers a deck file named "default", then falls back to
// the built-in deck.
func (m *Manager) loadDefaultDeck() {
	if m.deckDir != "" {
		if deck, err := m.LoadDeck("default"); err == nil {
			m.mu.Lock()
			m.defaultDeck = deck
			m.mu.Unlock()
			return
		}
	}

	m.mu.Lock()
	m.defaultDeck = builtinDeck()
	m.mu.Unlock()
}

// validateDeck checks the minimal shape a playable deck needs.
func validateDeck(deck *game.Deck) error {
	if deck.Name == "" {
		return errors.New("deck name is required")
	}
	if len(deck.Questions) == 0 {
		return errors.New("deck has no questions")
	}
	for i, q := range deck.Questions {
		if q.Text == "" {
			return fmt.Errorf("question %d has no text", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d needs at least two options", i)
		}
	}
	return nil
}

// builtinDeck is the fallback used when no deck directory is configured.
func builtinDeck() *game.Deck {
	return &game.Deck{
		Name:        "General Knowledge",
		Description: "Built-in starter deck",
		Questions: []game.Question{
			{
				Text:    "Which planet is known as the Red Planet?",
				Options: []string{"Venus", "Mars", "Jupiter", "Saturn"},
			},
			{
				Text:    "What is the largest ocean on Earth?",
				Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"},
			},
			{
				Text:    "How many continents are there?",
				Options: []string{"Five", "Six", "Seven", "Eight"},
			},
		},
	}
}
