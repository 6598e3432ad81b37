package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSink_SaveDeleteCycle(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	rec := &SessionRecord{
		ID:        "s1",
		Code:      "ABCDEF",
		DeckName:  "Test Deck",
		CreatedAt: time.Now(),
	}
	if err := sink.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if !sink.Exists("s1") {
		t.Error("Exists() = false after save")
	}

	// The record on disk must round-trip.
	data, err := os.ReadFile(filepath.Join(sink.dir, "s1.json"))
	if err != nil {
		t.Fatalf("reading record file: %v", err)
	}
	var got SessionRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("record file is not valid JSON: %v", err)
	}
	if got.ID != "s1" || got.Code != "ABCDEF" || got.DeckName != "Test Deck" {
		t.Errorf("record = %+v", got)
	}

	if err := sink.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if sink.Exists("s1") {
		t.Error("Exists() = true after delete")
	}
}

func TestFileSink_DeleteAbsentIsNil(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	if err := sink.DeleteSession("never-saved"); err != nil {
		t.Errorf("DeleteSession() on absent record error = %v, want nil", err)
	}
}

func TestFileSink_NilRecord(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	if err := sink.SaveSession(nil); err == nil {
		t.Error("SaveSession(nil) succeeded")
	}
}
