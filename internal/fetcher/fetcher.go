package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/agnews-dataset-prep/internal/logger"
	"github.com/samvad-hq/agnews-dataset-prep/pkg/httpclient"
)

// DefaultTimeout bounds a single mirror attempt.
const DefaultTimeout = 30 * time.Second

// ErrSourcesExhausted is returned when every candidate URL failed.
var ErrSourcesExhausted = errors.New("all candidate urls failed")

// Attempt is the outcome of trying one candidate URL.
type Attempt struct {
	URL   string
	Bytes int
	Err   error
}

// Result describes a whole fetch: either a cache hit, a winning URL, or exhaustion.
type Result struct {
	Destination string
	Skipped     bool
	URL         string
	Bytes       int
	Attempts    []Attempt
}

// OK reports whether the destination file is available.
func (r Result) OK() bool {
	return r.Skipped || r.URL != ""
}

// Err returns nil on success, otherwise ErrSourcesExhausted joined with each attempt error.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	errs := []error{ErrSourcesExhausted}
	for _, a := range r.Attempts {
		if a.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.URL, a.Err))
		}
	}
	return errors.Join(errs...)
}

// Fetcher downloads a file from the first mirror that answers.
type Fetcher struct {
	client  httpclient.Client
	timeout time.Duration
	log     logger.Logger
}

// New builds a Fetcher. A non-positive timeout falls back to DefaultTimeout.
func New(client httpclient.Client, timeout time.Duration, log logger.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = httpclient.NewRestyClient(timeout, "")
	}
	return &Fetcher{
		client:  client,
		timeout: timeout,
		log:     logger.Ensure(log),
	}
}

// Fetch tries urls in order and writes the first successful body to destination.
// An existing destination is trusted as-is and no request is made.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, destination string, headers map[string]string) Result {
	res := Result{Destination: destination}

	if _, err := os.Stat(destination); err == nil {
		res.Skipped = true
		f.log.InfoObj("using existing cached file", "fetch_meta", map[string]any{
			"destination": destination,
		})
		return res
	}

	res.Attempts = make([]Attempt, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, Attempt{URL: url, Err: err})
			break
		}

		f.log.InfoObj("fetch attempt started", "fetch_meta", map[string]any{
			"url":         url,
			"destination": destination,
		})

		n, err := f.tryURL(ctx, url, destination, headers)
		res.Attempts = append(res.Attempts, Attempt{URL: url, Bytes: n, Err: err})
		if err != nil {
			f.log.WarnObj("fetch attempt failed", "fetch_error", map[string]any{
				"url":   url,
				"error": err.Error(),
			})
			continue
		}

		res.URL = url
		res.Bytes = n
		f.log.InfoObj("fetch completed", "fetch_result", map[string]any{
			"url":         url,
			"destination": destination,
			"bytes":       n,
		})
		return res
	}

	f.log.ErrorObj("could not download from any url", "fetch_error", map[string]any{
		"destination": destination,
		"attempts":    len(res.Attempts),
	})
	return res
}

// tryURL reads the full body before touching the filesystem, so a failed
// attempt never leaves a partial file behind.
func (f *Fetcher) tryURL(ctx context.Context, url, destination string, headers map[string]string) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.Get(attemptCtx, url, headers)
	if err != nil {
		return 0, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return 0, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	body := resp.Body()
	if dir := filepath.Dir(destination); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create destination directory: %w", err)
		}
	}
	if err := os.WriteFile(destination, body, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", destination, err)
	}
	return len(body), nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
