package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink implements Sink using one JSON file per session record. It is
// the default persistence collaborator for single-process deployments;
// anything heavier plugs in behind the same interface.
type FileSink struct {
	dir string
}

// NewFileSink creates a file-based sink rooted at dir.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// SaveSession writes the record as indented JSON.
func (fs *FileSink) SaveSession(rec *SessionRecord) error {
	if rec == nil {
		return fmt.Errorf("session record cannot be nil")
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := os.WriteFile(fs.filePath(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// DeleteSession removes the record file. Deleting an absent record is not
// an error; the sink is best-effort either way.
func (fs *FileSink) DeleteSession(id string) error {
	err := os.Remove(fs.filePath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// Exists reports whether a record file is present for id.
func (fs *FileSink) Exists(id string) bool {
	_, err := os.Stat(fs.filePath(id))
	return err == nil
}

func (fs *FileSink) filePath(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
