package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Page is one simulated gateway response body for a partition: the exact
// wire-format JSON text spec.md §3 describes (e.g.
// `{"Documents":[...]}`), plus the continuation token that response
// would have carried.
type Page struct {
	Body         string `yaml:"body"`
	Continuation string `yaml:"continuation"`
}

// FixtureSet is the local stand-in for the Cosmos gateway this demo
// plays: a fixed, ahead-of-time sequence of pages per partition key
// range id. A real embedder would instead issue the DataRequest's
// query/continuation pair against the gateway's HTTP API (out of scope
// per spec.md §1); this demo exists to exercise the pipeline's pull
// protocol end to end against data it fully controls.
type FixtureSet struct {
	Ranges map[string][]Page `yaml:"ranges"`
}

// loadFixtures reads a FixtureSet from a YAML file.
func loadFixtures(path string) (*FixtureSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fs FixtureSet
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// cursor tracks how many pages of a range's fixture have already been
// served.
type cursor struct {
	served int
}

// next returns the next unserved page for rangeID, or an error if the
// fixture is exhausted (a bug in the fixture file, not a pipeline
// error: a real gateway never runs out of pages to return before
// reporting an empty continuation).
func (fs *FixtureSet) next(rangeID string, c *cursor) (Page, error) {
	pages, ok := fs.Ranges[rangeID]
	if !ok {
		return Page{}, fmt.Errorf("cqe: no fixture pages for range %q", rangeID)
	}
	if c.served >= len(pages) {
		return Page{}, fmt.Errorf("cqe: fixture for range %q exhausted after %d pages", rangeID, len(pages))
	}
	p := pages[c.served]
	c.served++
	return p, nil
}
