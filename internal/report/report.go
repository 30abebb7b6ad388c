package report

import (
	"fmt"
	"time"

	"github.com/atikulmunna/flowscope/internal/classify"
	"github.com/atikulmunna/flowscope/internal/flatten"
	"github.com/atikulmunna/flowscope/internal/loader"
	"github.com/atikulmunna/flowscope/internal/model"
)

// Options controls how a report is built.
type Options struct {
	Mode flatten.Mode
}

// Skipped describes a tuple dropped in SkipMalformed mode.
type Skipped struct {
	Location string `json:"location"`
	Error    string `json:"error"`
}

// Report is the classified view of one flow log document.
type Report struct {
	Source       string         `json:"source"`
	GeneratedAt  time.Time      `json:"generated_at"`
	TotalRows    int            `json:"total_rows"`
	ActionCounts map[string]int `json:"action_counts"`
	Allowed      []model.Row    `json:"allowed"`
	Denied       []model.Row    `json:"denied"`
	Unclassified []model.Row    `json:"unclassified"`
	Skipped      []Skipped      `json:"skipped,omitempty"`
}

// Build flattens and classifies doc. In FailFast mode a malformed tuple
// aborts the build and no report is returned.
func Build(doc *model.LogDocument, opts Options) (*Report, error) {
	var (
		rows   []model.Row
		failed []*flatten.TupleError
		err    error
	)
	if opts.Mode == flatten.FailFast {
		rows, err = flatten.Flatten(doc)
	} else {
		rows, failed, err = flatten.Collect(flatten.Results(doc), opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	parts := classify.Partition(rows)
	r := &Report{
		GeneratedAt:  time.Now(),
		TotalRows:    len(rows),
		ActionCounts: make(map[string]int),
		Allowed:      parts.Allowed,
		Denied:       parts.Denied,
		Unclassified: parts.Unclassified,
	}
	for _, row := range rows {
		r.ActionCounts[row.Action]++
	}
	for _, te := range failed {
		r.Skipped = append(r.Skipped, Skipped{Location: te.Loc.String(), Error: te.Err.Error()})
	}
	return r, nil
}

// FromFile loads path and builds its report.
func FromFile(path string, opts Options) (*Report, error) {
	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	r, err := Build(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.Source = path
	return r, nil
}
