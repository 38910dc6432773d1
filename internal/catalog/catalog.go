// Package catalog holds the built-in content template catalog.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed templates.json
var templatesJSON []byte

// Input is a single labeled field of a template form.
type Input struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Template is a content template the user fills in to generate text.
type Template struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Command     string   `json:"command"`
	Categories  []string `json:"categories"`
	Inputs      []Input  `json:"inputs"`
}

// Summary is the short form of a template shown on the dashboard.
type Summary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CategoryCount is the number of templates in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats is the dashboard view of the catalog.
type Stats struct {
	TotalTemplates    int             `json:"totalTemplates"`
	CategoryCounts    map[string]int  `json:"categoryCounts"`
	RecentTemplates   []Summary       `json:"recentTemplates"`
	PopularCategories []CategoryCount `json:"popularCategories"`
}

const (
	recentLimit  = 5
	popularLimit = 3
)

// Catalog is an immutable, ordered set of templates.
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// New builds a catalog from templates, rejecting duplicate ids.
func New(templates []Template) (*Catalog, error) {
	c := &Catalog{templates: templates, byID: make(map[string]int, len(templates))}
	for i, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template %d has no id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	var templates []Template
	if err := json.Unmarshal(templatesJSON, &templates); err != nil {
		return nil, fmt.Errorf("decode built-in templates: %w", err)
	}
	return New(templates)
}

// Find returns the template with the given id.
func (c *Catalog) Find(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// All returns every template in catalog order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Stats computes dashboard statistics. Popular categories are ordered by count, then name.
func (c *Catalog) Stats() Stats {
	counts := make(map[string]int)
	for _, t := range c.templates {
		for _, cat := range t.Categories {
			counts[cat]++
		}
	}

	recent := make([]Summary, 0, recentLimit)
	for i := 0; i < len(c.templates) && i < recentLimit; i++ {
		t := c.templates[i]
		recent = append(recent, Summary{ID: t.ID, Title: t.Title, Description: t.Description})
	}

	popular := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		popular = append(popular, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].Category < popular[j].Category
	})
	if len(popular) > popularLimit {
		popular = popular[:popularLimit]
	}

	return Stats{
		TotalTemplates:    len(c.templates),
		CategoryCounts:    counts,
		RecentTemplates:   recent,
		PopularCategories: popular,
	}
}
