package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/samvad-hq/agnews-dataset-prep/internal/domain"
	"github.com/samvad-hq/agnews-dataset-prep/internal/logger"
)

const quote = `"`

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for progress and failure reporting.
func WithLogger(log logger.Logger) Option {
	return func(p *Parser) { p.log = logger.Ensure(log) }
}

// WithMarkupNormalization strips HTML tags and entities from titles and bodies.
func WithMarkupNormalization(enabled bool) Option {
	return func(p *Parser) { p.normalizeMarkup = enabled }
}

// Parser turns AG News CSV rows ("class id","title","description") into documents.
type Parser struct {
	categories      domain.CategoryTable
	normalizeMarkup bool
	log             logger.Logger
}

// New builds a parser around an immutable category table.
func New(categories domain.CategoryTable, opts ...Option) *Parser {
	if categories == nil {
		categories = domain.DefaultCategories()
	}
	p := &Parser{
		categories: categories,
		log:        logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile parses the CSV at path. limit caps the number of rows examined;
// zero means no limit and a negative limit examines nothing.
// On failure the documents read so far are returned alongside the error.
func (p *Parser) ParseFile(path string, limit int) ([]domain.Document, error) {
	p.log.InfoObj("parsing source file", "parse_meta", map[string]any{
		"path":  path,
		"limit": limit,
	})

	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("open %s: %w", path, err)
		p.logFailure(path, err)
		return []domain.Document{}, err
	}
	defer f.Close()

	docs, err := p.Parse(f, limit)
	if err != nil {
		err = fmt.Errorf("parse %s: %w", path, err)
		p.logFailure(path, err)
		return docs, err
	}

	p.log.InfoObj("parsed documents", "parse_result", map[string]any{
		"path":      path,
		"documents": len(docs),
	})
	return docs, nil
}

// Parse reads CSV rows from r. See ParseFile for limit semantics.
// Blank lines are rows too: they are dropped but still take an index.
func (p *Parser) Parse(r io.Reader, limit int) ([]domain.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	docs := make([]domain.Document, 0)
	row, nextLine := 0, 1
	for limit == 0 || row < limit {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return docs, fmt.Errorf("row %d: %w", row, err)
		}

		// encoding/csv skips empty lines; count the gap before this record.
		line, _ := cr.FieldPos(0)
		if line > nextLine {
			row += line - nextLine
		}
		last := len(fields) - 1
		lastLine, _ := cr.FieldPos(last)
		nextLine = lastLine + strings.Count(fields[last], "\n") + 1

		if limit > 0 && row >= limit {
			break
		}
		if len(fields) >= 3 {
			doc, err := p.buildDocument(fields, row)
			if err != nil {
				return docs, fmt.Errorf("row %d: %w", row, err)
			}
			docs = append(docs, doc)
		}
		row++
	}
	return docs, nil
}

func (p *Parser) buildDocument(fields []string, row int) (domain.Document, error) {
	classID := strings.Trim(fields[0], quote)
	title := strings.Trim(fields[1], quote)
	body := strings.Trim(fields[2], quote)

	if !utf8.ValidString(title) || !utf8.ValidString(body) {
		return domain.Document{}, errors.New("invalid utf-8 text")
	}
	if p.normalizeMarkup {
		title = NormalizeMarkup(title)
		body = NormalizeMarkup(body)
	}

	category := p.categories.Lookup(classID)
	return domain.Document{
		Title:    title,
		Category: category,
		Href:     domain.Href(category, row),
		Body:     body,
	}, nil
}

func (p *Parser) logFailure(path string, err error) {
	p.log.ErrorObj("parse failed", "parse_error", map[string]any{
		"path":  path,
		"error": err.Error(),
	})
}
