package history

import (
	"path/filepath"
	"testing"

	"g0c/pkg/vm"
)

func TestRecordAndRecentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	run := Run{
		BytecodePath:  "a.g0b",
		Stats:         vm.Stats{InstructionsExecuted: 42, MaxStackDepth: 3, HeapWordsInUse: 0},
		HaltedCleanly: true,
		DurationMS:    7,
		ExitCode:      0,
	}
	id, err := store.Record(run)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("Record returned an empty id")
	}

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("got %d rows, want 1", len(recent))
	}
	got := recent[0]
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if got.BytecodePath != "a.g0b" {
		t.Errorf("BytecodePath = %q, want a.g0b", got.BytecodePath)
	}
	if got.Stats.InstructionsExecuted != 42 {
		t.Errorf("InstructionsExecuted = %d, want 42", got.Stats.InstructionsExecuted)
	}
	if !got.HaltedCleanly {
		t.Error("HaltedCleanly = false, want true")
	}
	if got.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", got.ErrorMessage)
	}
}

func TestRecordGeneratesIDWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	id1, err := store.Record(Run{BytecodePath: "x.g0b"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	id2, err := store.Record(Run{BytecodePath: "y.g0b"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct generated ids, got %q twice", id1)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := store.Record(Run{BytecodePath: "first.g0b"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(Run{BytecodePath: "second.g0b"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d rows, want 2", len(recent))
	}
	if recent[0].BytecodePath != "second.g0b" {
		t.Errorf("recent[0] = %q, want second.g0b (newest first)", recent[0].BytecodePath)
	}
}
