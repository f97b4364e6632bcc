package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("expected 30s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.Dataset != "train" {
		t.Fatalf("expected train dataset, got %q", cfg.Dataset)
	}
	if cfg.OutputPath() != "documents.json" {
		t.Fatalf("unexpected output path %q", cfg.OutputPath())
	}
	if cfg.NormalizeMarkup {
		t.Fatalf("markup normalization should be off by default")
	}
	if cfg.StorageType != "none" {
		t.Fatalf("fetch ledger should be disabled by default, got %q", cfg.StorageType)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("DATASET", " TEST ")
	t.Setenv("STORAGE_TYPE", "bbolt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.Dataset != "test" {
		t.Fatalf("expected normalized dataset, got %q", cfg.Dataset)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("expected storage override, got %q", cfg.StorageType)
	}
	if got := cfg.DataPath("train.csv"); got != filepath.Join(dir, "train.csv") {
		t.Fatalf("DataPath = %q", got)
	}
	abs := filepath.Join(dir, "elsewhere.json")
	if got := cfg.DataPath(abs); got != abs {
		t.Fatalf("absolute path rewritten to %q", got)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero fetch timeout")
	}
}
