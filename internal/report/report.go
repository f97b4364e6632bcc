package report

import (
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/samvad-hq/agnews-dataset-prep/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CategoryCount is the number of documents in one category.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// Stats summarizes a document collection. Characters are Unicode code points.
type Stats struct {
	Documents  int             `json:"documents"`
	TotalChars int             `json:"total_chars"`
	Categories []CategoryCount `json:"categories"`
}

// Compute derives statistics from docs without modifying them.
func Compute(docs []domain.Document) Stats {
	counts := make(map[domain.Category]int)
	total := 0
	for _, d := range docs {
		total += utf8.RuneCountInString(d.Title) + utf8.RuneCountInString(d.Body)
		counts[d.Category]++
	}

	cats := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		cats = append(cats, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Category < cats[j].Category })

	return Stats{
		Documents:  len(docs),
		TotalChars: total,
		Categories: cats,
	}
}

// Average returns floor(TotalChars / Documents); ok is false for an empty collection.
func (s Stats) Average() (avg int, ok bool) {
	if s.Documents == 0 {
		return 0, false
	}
	return s.TotalChars / s.Documents, true
}

// CategoryMap returns the per-category counts keyed by name.
func (s Stats) CategoryMap() map[string]int {
	out := make(map[string]int, len(s.Categories))
	for _, c := range s.Categories {
		out[string(c.Category)] = c.Count
	}
	return out
}

// Print writes the human-readable summary with thousands separators.
func (s Stats) Print(w io.Writer, outputPath string) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "Successfully created %s\n", outputPath)
	ew.printf(p, "Total documents: %d\n", s.Documents)
	ew.printf(p, "Total characters: %d\n", s.TotalChars)
	if avg, ok := s.Average(); ok {
		ew.printf(p, "Average document size: %d characters\n", avg)
	}
	ew.printf(p, "\nDocuments by category:\n")
	for _, c := range s.Categories {
		ew.printf(p, "  %s: %d\n", c.Category, c.Count)
	}
	if ew.err != nil {
		return fmt.Errorf("print report: %w", ew.err)
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, args...)
}
