package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a small local ledger of completed downloads.

// FetchRecord describes the download that produced a cached source file.
type FetchRecord struct {
	SourceID    string    `json:"source_id"`
	URL         string    `json:"url"`
	Destination string    `json:"destination"`
	Bytes       int       `json:"bytes"`
	SHA256      string    `json:"sha256"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Store persists fetch records keyed by source id.
type Store interface {
	Close() error
	RecordFetch(rec FetchRecord) error
	LastFetch(sourceID string) (FetchRecord, bool, error)
}

// Options controls behaviour of concrete store implementations.
type Options struct {
	OpenTimeout time.Duration
}

const defaultOpenTimeout = time.Second

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                { return nil }
func (noopStore) RecordFetch(FetchRecord) error               { return nil }
func (noopStore) LastFetch(string) (FetchRecord, bool, error) { return FetchRecord{}, false, nil }
