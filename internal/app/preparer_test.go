package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/agnews-dataset-prep/internal/config"
	"github.com/samvad-hq/agnews-dataset-prep/internal/storage"
	"github.com/samvad-hq/agnews-dataset-prep/internal/writer"
)

const sampleCSV = `"1","Title A","Body A"
"3","Title B","Body B"
"2","short"
"9","Title C","Body C"
`

func testConfig(t *testing.T, mirrors ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("sources:\n  - id: train\n    file: train.csv\n    urls:\n")
	for _, m := range mirrors {
		sb.WriteString("      - " + m + "\n")
	}
	sourcesFile := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(sourcesFile, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	return &config.Config{
		DataDir:      dir,
		Dataset:      "train",
		OutputFile:   "documents.json",
		SourcesFile:  sourcesFile,
		FetchTimeout: 2 * time.Second,
		StorageType:  "bbolt",
		BBoltPath:    filepath.Join(dir, "ledger.db"),
	}
}

func newTestPreparer(t *testing.T, cfg *config.Config) (*Preparer, *bytes.Buffer) {
	t.Helper()
	p, err := NewPreparer(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewPreparer: %v", err)
	}
	var out bytes.Buffer
	p.out = &out
	return p, &out
}

func TestRunFetchesParsesAndWrites(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	cfg := testConfig(t, down.URL, srv.URL)
	p, out := newTestPreparer(t, cfg)
	if err := p.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	docs, err := writer.Read(cfg.OutputPath())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[2].Href != "/article/unknown/3" || docs[1].Href != "/article/business/1" {
		t.Fatalf("unexpected hrefs %q %q", docs[1].Href, docs[2].Href)
	}

	report := out.String()
	for _, want := range []string{"Successfully created", "Total documents: 3", "  World: 1"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	store, err := storage.NewStore("bbolt", cfg.BBoltPath, storage.Options{})
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	rec, ok, err := store.LastFetch("train")
	_ = store.Close()
	if err != nil || !ok {
		t.Fatalf("expected ledger entry, ok=%v err=%v", ok, err)
	}
	if rec.URL != srv.URL || rec.Bytes != len(sampleCSV) || len(rec.SHA256) != 64 {
		t.Fatalf("unexpected ledger record %+v", rec)
	}

	// A second run uses the cached file.
	p2, _ := newTestPreparer(t, cfg)
	if err := p2.Run(context.Background(), 1); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected cached source to be reused, server hits=%d", hits.Load())
	}
	docs, _ = writer.Read(cfg.OutputPath())
	if len(docs) != 1 {
		t.Fatalf("expected limit to cap output at 1, got %d", len(docs))
	}
}

func TestRunFailsWhenMirrorsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.StorageType = "none"
	p, _ := newTestPreparer(t, cfg)

	err := p.Run(context.Background(), 0)
	if !errors.Is(err, ErrSourcesExhausted) {
		t.Fatalf("expected ErrSourcesExhausted, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file")
	}
}

func TestRunWithNoDocumentsWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("\"1\",\"only two\"\n"))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.StorageType = "none"
	p, _ := newTestPreparer(t, cfg)

	if err := p.Run(context.Background(), 0); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file")
	}
}

func TestRunPublishesCompletionEvent(t *testing.T) {
	csvSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer csvSrv.Close()

	var body atomic.Value
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		body.Store(buf.String())
	}))
	defer hook.Close()

	cfg := testConfig(t, csvSrv.URL)
	cfg.StorageType = "none"
	cfg.PublishersFile = filepath.Join(cfg.DataDir, "publishers.yaml")
	pubYAML := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + hook.URL + "\n"
	if err := os.WriteFile(cfg.PublishersFile, []byte(pubYAML), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	p, _ := newTestPreparer(t, cfg)
	if err := p.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := body.Load().(string)
	if !strings.Contains(got, `"type":"dataset.prepared"`) || !strings.Contains(got, `"documents":3`) {
		t.Fatalf("unexpected event payload %q", got)
	}
}

func TestNewPreparerRejectsUnknownDataset(t *testing.T) {
	cfg := testConfig(t, "https://example.invalid/train.csv")
	cfg.Dataset = "validation"
	cfg.StorageType = "none"
	if _, err := NewPreparer(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestRunWithoutLedgerWritesOnlyDatasetFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.StorageType = "none"
	p, _ := newTestPreparer(t, cfg)
	if err := p.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if got := strings.Join(names, ","); got != "documents.json,sources.yaml,train.csv" {
		t.Fatalf("unexpected files in data dir: %s", got)
	}
}
