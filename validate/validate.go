// Command validate provides a small CLI that validates question deck JSON
// files in a deck directory (default "decks"). It checks:
//   - JSON structure and required fields
//   - Presence of a deck name and at least one question
//   - Every question has text and at least two answer options
//   - No duplicate options within a question
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Deck mirrors the JSON schema for a question deck.
type Deck struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Question is one entry in a deck file.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Notes contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File  string
	Valid bool
	Notes []string
}

// validateDeckFile loads and validates a single deck JSON file.
func validateDeckFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
		Notes: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var deck Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if deck.Name == "" {
		result.Valid = false
		result.Notes = append(result.Notes, "Deck name is required")
	}

	if len(deck.Questions) == 0 {
		result.Valid = false
		result.Notes = append(result.Notes, "Deck must have at least 1 question")
	}

	for i, q := range deck.Questions {
		if strings.TrimSpace(q.Text) == "" {
			result.Valid = false
			result.Notes = append(result.Notes, fmt.Sprintf("Question %d has no text", i+1))
		}
		if len(q.Options) < 2 {
			result.Valid = false
			result.Notes = append(result.Notes, fmt.Sprintf("Question %d needs at least 2 options, got %d", i+1, len(q.Options)))
		}

		seen := map[string]bool{}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				result.Valid = false
				result.Notes = append(result.Notes, fmt.Sprintf("Question %d has an empty option", i+1))
				continue
			}
			if seen[opt] {
				result.Valid = false
				result.Notes = append(result.Notes, fmt.Sprintf("Question %d has duplicate option %q", i+1, opt))
			}
			seen[opt] = true
		}
	}

	if result.Valid {
		result.Notes = append(result.Notes, fmt.Sprintf("Name: %s", deck.Name))
		if deck.Description != "" {
			result.Notes = append(result.Notes, fmt.Sprintf("Description: %s", deck.Description))
		}
		result.Notes = append(result.Notes, fmt.Sprintf("Questions: %d", len(deck.Questions)))
	}

	return result
}

// validateDir validates every .json file in dir and reports the results.
func validateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck directory: %w", err)
	}

	var results []ValidationResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		results = append(results, validateDeckFile(filepath.Join(dir, entry.Name())))
	}
	return results, nil
}

func main() {
	dir := "decks"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	results, err := validateDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Printf("No deck files found in %s\n", dir)
		return
	}

	failed := 0
	for _, r := range results {
		status := "OK"
		if !r.Valid {
			status = "INVALID"
			failed++
		}
		fmt.Printf("%s: %s\n", r.File, status)
		for _, note := range r.Notes {
			fmt.Printf("  %s\n", note)
		}
	}

	fmt.Printf("\n%d file(s) checked, %d invalid\n", len(results), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
