package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/agnews-dataset-prep/internal/config"
	"github.com/samvad-hq/agnews-dataset-prep/internal/domain"
	"github.com/samvad-hq/agnews-dataset-prep/internal/fetcher"
	"github.com/samvad-hq/agnews-dataset-prep/internal/logger"
	"github.com/samvad-hq/agnews-dataset-prep/internal/parser"
	"github.com/samvad-hq/agnews-dataset-prep/internal/report"
	"github.com/samvad-hq/agnews-dataset-prep/internal/storage"
	"github.com/samvad-hq/agnews-dataset-prep/internal/writer"
	"github.com/samvad-hq/agnews-dataset-prep/pkg/httpclient"
	"github.com/samvad-hq/agnews-dataset-prep/pkg/publishers"
	"github.com/samvad-hq/agnews-dataset-prep/pkg/sources"
)

var (
	// ErrSourcesExhausted means no mirror produced the source file.
	ErrSourcesExhausted = fetcher.ErrSourcesExhausted
	// ErrNoDocuments means parsing yielded nothing, so no output was written.
	ErrNoDocuments = errors.New("no documents parsed")
)

// Preparer runs one fetch, parse, write and report pass over a dataset split.
type Preparer struct {
	cfg     *config.Config
	source  sources.Source
	fetcher *fetcher.Fetcher
	parser  *parser.Parser
	store   storage.Store
	fanout  *publishers.Fanout
	out     io.Writer
	log     logger.Logger
}

// NewPreparer wires the pipeline from configuration.
func NewPreparer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Preparer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	src, ok := sourceReg.ByID(cfg.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %q is not defined in the sources registry", cfg.Dataset)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count":   len(sourceReg.All()),
		"dataset": src.ID,
		"mirrors": src.URLs,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := httpclient.NewRestyClient(cfg.FetchTimeout, cfg.UserAgent)
	return &Preparer{
		cfg:     cfg,
		source:  src,
		fetcher: fetcher.New(client, cfg.FetchTimeout, log),
		parser: parser.New(domain.DefaultCategories(),
			parser.WithLogger(log),
			parser.WithMarkupNormalization(cfg.NormalizeMarkup),
		),
		store:  store,
		fanout: fanout,
		out:    os.Stdout,
		log:    log,
	}, nil
}

// buildFanout returns nil when no publishers file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return nil, nil
	}
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes the pipeline once. limit follows parser.ParseFile semantics.
func (p *Preparer) Run(ctx context.Context, limit int) error {
	if p == nil || p.fetcher == nil || p.parser == nil {
		return fmt.Errorf("preparer is not initialized")
	}
	defer p.close()

	runID := uuid.NewString()
	p.log.InfoObj("preparation starting", "run_meta", map[string]any{
		"run_id":  runID,
		"dataset": p.source.ID,
		"limit":   limit,
	})

	csvPath := p.cfg.DataPath(p.source.File)
	res := p.fetcher.Fetch(ctx, p.source.URLs, csvPath, p.source.Headers)
	if err := res.Err(); err != nil {
		return fmt.Errorf("fetch %s: %w", p.source.ID, err)
	}
	p.recordFetch(res)

	docs, err := p.parser.ParseFile(csvPath, limit)
	if len(docs) == 0 {
		if err != nil {
			return errors.Join(ErrNoDocuments, err)
		}
		return ErrNoDocuments
	}
	if err != nil {
		p.log.WarnObj("continuing with partial parse result", "parse_partial", map[string]any{
			"documents": len(docs),
			"error":     err.Error(),
		})
	}

	outPath := p.cfg.OutputPath()
	if err := writer.Write(docs, outPath); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}

	stats := report.Compute(docs)
	if err := stats.Print(p.out, outPath); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	p.publish(ctx, publishers.NewEvent(runID, p.source.ID, res.URL, outPath, stats))

	p.log.InfoObj("preparation finished", "run_result", map[string]any{
		"run_id":      runID,
		"documents":   stats.Documents,
		"total_chars": stats.TotalChars,
		"output":      outPath,
	})
	return nil
}

// recordFetch updates the ledger after a download, or reports the last entry on a cache hit.
func (p *Preparer) recordFetch(res fetcher.Result) {
	if res.Skipped {
		rec, ok, err := p.store.LastFetch(p.source.ID)
		switch {
		case err != nil:
			p.log.WarnObj("fetch ledger lookup failed", "ledger_error", err.Error())
		case ok:
			p.log.InfoObj("cached source previously fetched", "ledger_entry", rec)
		}
		return
	}

	sum, err := fileSHA256(res.Destination)
	if err != nil {
		p.log.WarnObj("could not checksum downloaded file", "ledger_error", err.Error())
	}
	rec := storage.FetchRecord{
		SourceID:    p.source.ID,
		URL:         res.URL,
		Destination: res.Destination,
		Bytes:       res.Bytes,
		SHA256:      sum,
		FetchedAt:   time.Now().UTC(),
	}
	if err := p.store.RecordFetch(rec); err != nil {
		p.log.WarnObj("fetch ledger update failed", "ledger_error", err.Error())
	}
}

func (p *Preparer) publish(ctx context.Context, evt publishers.Event) {
	if p.fanout.Size() == 0 {
		return
	}
	d := p.fanout.Publish(ctx, evt)
	if err := d.Err(); err != nil {
		p.log.WarnObj("completion event not delivered everywhere", "publish_error", map[string]any{
			"delivered": d.Delivered,
			"error":     err.Error(),
		})
		return
	}
	p.log.InfoObj("completion event published", "publish_result", map[string]any{
		"delivered": d.Delivered,
		"run_id":    evt.RunID,
	})
}

func (p *Preparer) close() {
	if err := p.fanout.Close(); err != nil {
		p.log.WarnObj("failed to close publishers", "error", err.Error())
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.WarnObj("failed to close storage", "error", err.Error())
		}
	}
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
