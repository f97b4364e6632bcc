package domain

import (
	"strconv"
	"strings"
)

// Domain contains core models shared by the pipeline stages.

// Category names a news topic. The set is closed.
type Category string

const (
	CategoryWorld    Category = "World"
	CategorySports   Category = "Sports"
	CategoryBusiness Category = "Business"
	CategorySciTech  Category = "Sci/Tech"
	CategoryUnknown  Category = "Unknown"
)

// Document is one normalized article record as written to documents.json.
// Field order is the JSON output order.
type Document struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Href     string   `json:"href"`
	Body     string   `json:"body"`
}

// CategoryTable maps AG News class ids to categories.
type CategoryTable map[string]Category

// DefaultCategories returns a fresh copy of the AG News class id table.
func DefaultCategories() CategoryTable {
	return CategoryTable{
		"1": CategoryWorld,
		"2": CategorySports,
		"3": CategoryBusiness,
		"4": CategorySciTech,
	}
}

// Lookup returns the category for a class id, or CategoryUnknown.
func (t CategoryTable) Lookup(classID string) Category {
	if c, ok := t[classID]; ok {
		return c
	}
	return CategoryUnknown
}

// Slug lower-cases the category and replaces "/" so it can sit in a path.
func (c Category) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(c)), "/", "-")
}

// Href builds the synthetic document path for a category and source row index.
func Href(c Category, row int) string {
	return "/article/" + c.Slug() + "/" + strconv.Itoa(row)
}
