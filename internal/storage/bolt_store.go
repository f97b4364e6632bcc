package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"
)

const fetchBucket = "fetches"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(fetchBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordFetch stores rec under its source id, replacing any earlier record.
func (b *boltStore) RecordFetch(rec FetchRecord) error {
	if b == nil || b.db == nil {
		return nil
	}
	key := strings.TrimSpace(rec.SourceID)
	if key == "" {
		return fmt.Errorf("fetch record has no source id")
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode fetch record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchBucket))
		if bucket == nil {
			return fmt.Errorf("fetch bucket missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

// LastFetch returns the most recent record for sourceID, if any.
func (b *boltStore) LastFetch(sourceID string) (FetchRecord, bool, error) {
	if b == nil || b.db == nil {
		return FetchRecord{}, false, nil
	}

	var (
		rec   FetchRecord
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchBucket))
		if bucket == nil {
			return fmt.Errorf("fetch bucket missing")
		}
		value := bucket.Get([]byte(strings.TrimSpace(sourceID)))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode fetch record: %w", err)
		}
		found = true
		return nil
	})
	return rec, found, err
}
