package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samvad-hq/agnews-dataset-prep/internal/domain"
)

const indent = "  "

// Write serializes documents as one pretty-printed JSON array at destination.
// The array is encoded into a temp file beside destination and renamed into
// place, so readers see either the previous file or the complete new one.
func Write(docs []domain.Document, destination string) (err error) {
	if docs == nil {
		docs = []domain.Document{}
	}

	dir := filepath.Dir(destination)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*.tmp")
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err = enc.Encode(docs); err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if _, err = tmp.Write(unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = os.Rename(tmp.Name(), destination); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Read loads a documents file written by Write.
func Read(path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

var (
	lineSep = []byte("\u2028")
	paraSep = []byte("\u2029")
)

// unescapeLineSeparators writes U+2028 and U+2029 as raw UTF-8, the only
// non-ASCII runes encoding/json still escapes with HTML escaping off.
// Escapes are consumed pairwise so an escaped backslash is never misread.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		switch {
		case bytes.HasPrefix(b[i:], []byte(`\u2028`)):
			out = append(out, lineSep...)
			i += 5
		case bytes.HasPrefix(b[i:], []byte(`\u2029`)):
			out = append(out, paraSep...)
			i += 5
		default:
			out = append(out, b[i], b[i+1])
			i++
		}
	}
	return out
}
