package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package sources holds the dataset split definitions: where each split is
// cached locally and which mirrors serve it, in preference order.

const (
	SplitTrain = "train"
	// SplitTest is registered so it can be fetched on demand; the default
	// pipeline only consumes the train split.
	SplitTest = "test"
)

// Source describes one logical dataset file and its candidate URLs.
type Source struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	File    string            `json:"file" yaml:"file"`
	URLs    []string          `json:"urls" yaml:"urls"`
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Defaults returns the AG News mirrors: GitHub raw first, Hugging Face second.
func Defaults() []Source {
	return []Source{
		{
			ID:   SplitTrain,
			Name: "AG News training split",
			File: "train.csv",
			URLs: []string{
				"https://raw.githubusercontent.com/mhjabreel/CharCnn_Keras/master/data/ag_news_csv/train.csv",
				"https://huggingface.co/datasets/fancyzhx/ag_news/resolve/main/train.csv",
			},
		},
		{
			ID:   SplitTest,
			Name: "AG News test split",
			File: "test.csv",
			URLs: []string{
				"https://raw.githubusercontent.com/mhjabreel/CharCnn_Keras/master/data/ag_news_csv/test.csv",
				"https://huggingface.co/datasets/fancyzhx/ag_news/resolve/main/test.csv",
			},
		},
	}
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry is an immutable, validated set of sources.
type Registry struct {
	sources []Source
	idx     map[string]Source
}

// NewRegistry sanitizes and validates the given sources.
func NewRegistry(srcs []Source) (*Registry, error) {
	if len(srcs) == 0 {
		return nil, errors.New("no sources defined")
	}

	reg := &Registry{
		sources: make([]Source, len(srcs)),
		idx:     make(map[string]Source, len(srcs)),
	}
	for i := range srcs {
		s := sanitizeSource(srcs[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		reg.sources[i] = s
		reg.idx[s.ID] = s
	}
	return reg, nil
}

// DefaultRegistry wraps Defaults in a Registry.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(Defaults())
	if err != nil {
		panic(fmt.Sprintf("built-in sources invalid: %v", err))
	}
	return reg
}

// LoadRegistry loads sources from a YAML/JSON file. An empty path yields the defaults.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	rf, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(rf.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}
	return NewRegistry(rf.Sources)
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if rf, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return rf, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var rf registryFile
	if err := fn(data, &rf); err != nil {
		return registryFile{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return rf, nil
}

func sanitizeSource(s Source) Source {
	s.ID = strings.ToLower(strings.TrimSpace(s.ID))
	s.Name = strings.TrimSpace(s.Name)
	s.File = strings.TrimSpace(s.File)
	if s.Name == "" {
		s.Name = s.ID
	}

	urls := make([]string, 0, len(s.URLs))
	for _, u := range s.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	s.URLs = urls

	if len(s.Headers) > 0 {
		headers := make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			headers[k] = v
		}
		s.Headers = headers
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.File == "" {
		return fmt.Errorf("file is required for source %q", s.ID)
	}
	if len(s.URLs) == 0 {
		return fmt.Errorf("at least one url is required for source %q", s.ID)
	}
	return nil
}

// ByID returns the source with the given id.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	s, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return s, ok
}

// All returns every source in declaration order.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}
