package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreRecordsAndReplacesFetches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	store, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if _, found, err := store.LastFetch("train"); err != nil || found {
		t.Fatalf("expected empty ledger, found=%v err=%v", found, err)
	}

	first := FetchRecord{
		SourceID:  "train",
		URL:       "https://mirror-a.example/train.csv",
		Bytes:     10,
		SHA256:    "abc",
		FetchedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := store.RecordFetch(first); err != nil {
		t.Fatalf("RecordFetch: %v", err)
	}

	second := first
	second.URL = "https://mirror-b.example/train.csv"
	if err := store.RecordFetch(second); err != nil {
		t.Fatalf("RecordFetch: %v", err)
	}

	got, found, err := store.LastFetch("train")
	if err != nil || !found {
		t.Fatalf("LastFetch found=%v err=%v", found, err)
	}
	if got.URL != second.URL || got.Bytes != 10 || !got.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.RecordFetch(FetchRecord{SourceID: "test", Bytes: 3}); err != nil {
		t.Fatalf("RecordFetch: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.LastFetch("test")
	if err != nil || !found || got.Bytes != 3 {
		t.Fatalf("expected persisted record, got %+v found=%v err=%v", got, found, err)
	}
}

func TestBoltStoreRejectsEmptySourceID(t *testing.T) {
	store, err := NewStore("bbolt", filepath.Join(t.TempDir(), "ledger.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.RecordFetch(FetchRecord{}); err == nil {
		t.Fatalf("expected error for empty source id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.RecordFetch(FetchRecord{SourceID: "x"}); err != nil {
		t.Fatalf("noop store RecordFetch: %v", err)
	}
	if _, found, _ := store.LastFetch("x"); found {
		t.Fatalf("noop store should never find records")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
