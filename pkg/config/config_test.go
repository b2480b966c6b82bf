package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesDocumentedConstants(t *testing.T) {
	cfg := Default()
	if cfg.HeapStart != 10000 {
		t.Errorf("HeapStart = %d, want 10000", cfg.HeapStart)
	}
	if cfg.StaticCapacity != 10000 {
		t.Errorf("StaticCapacity = %d, want 10000", cfg.StaticCapacity)
	}
	if cfg.HeapCapacity != 1<<16 {
		t.Errorf("HeapCapacity = %d, want %d", cfg.HeapCapacity, 1<<16)
	}
	if cfg.FPURegisterSlots != 8 {
		t.Errorf("FPURegisterSlots = %d, want 8", cfg.FPURegisterSlots)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(\"\") = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g0cvm.toml")
	err := os.WriteFile(path, []byte("heap_capacity = 4096\nhistory_path = \"/tmp/run.db\"\n"), 0644)
	if err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HeapCapacity != 4096 {
		t.Errorf("HeapCapacity = %d, want 4096", cfg.HeapCapacity)
	}
	if cfg.HistoryPath != "/tmp/run.db" {
		t.Errorf("HistoryPath = %q, want /tmp/run.db", cfg.HistoryPath)
	}
	if cfg.HeapStart != Default().HeapStart {
		t.Errorf("HeapStart = %d, want default %d unaffected by partial overlay", cfg.HeapStart, Default().HeapStart)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/g0cvm.toml"); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}
