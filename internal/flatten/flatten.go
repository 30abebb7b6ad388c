package flatten

import (
	"fmt"

	"github.com/atikulmunna/flowscope/internal/model"
	"github.com/atikulmunna/flowscope/internal/parser"
)

// Mode selects how Collect treats malformed tuples.
type Mode int

const (
	// FailFast stops at the first malformed tuple.
	FailFast Mode = iota
	// SkipMalformed drops malformed tuples and returns their errors.
	SkipMalformed
)

// Location identifies a tuple inside a document.
type Location struct {
	Record int
	Flow   int
	Group  int
	Tuple  int
}

func (l Location) String() string {
	return fmt.Sprintf("records[%d].flowRecords.flows[%d].flowGroups[%d].flowTuples[%d]", l.Record, l.Flow, l.Group, l.Tuple)
}

// TupleError reports a tuple that could not be turned into a row.
type TupleError struct {
	Loc Location
	Err error
}

func (e *TupleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Loc, e.Err)
}

func (e *TupleError) Unwrap() error { return e.Err }

// Result is either a Row or the decode error for the tuple at Loc.
type Result struct {
	Loc Location
	Row model.Row
	Err error
}

// Results converts every tuple in doc, in document order.
func Results(doc *model.LogDocument) []Result {
	var out []Result
	walk(doc, func(res Result) bool {
		out = append(out, res)
		return true
	})
	return out
}

// Flatten returns one row per tuple, stopping at the first malformed tuple.
func Flatten(doc *model.LogDocument) ([]model.Row, error) {
	rows := []model.Row{}
	var err error
	walk(doc, func(res Result) bool {
		if res.Err != nil {
			err = &TupleError{Loc: res.Loc, Err: res.Err}
			return false
		}
		rows = append(rows, res.Row)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Collect splits results into rows and errors according to mode.
// In FailFast mode the first error is returned and no rows.
func Collect(results []Result, mode Mode) ([]model.Row, []*TupleError, error) {
	rows := make([]model.Row, 0, len(results))
	var failed []*TupleError
	for _, res := range results {
		if res.Err == nil {
			rows = append(rows, res.Row)
			continue
		}
		te := &TupleError{Loc: res.Loc, Err: res.Err}
		if mode == FailFast {
			return nil, nil, te
		}
		failed = append(failed, te)
	}
	return rows, failed, nil
}

// walk visits tuples in document order until fn returns false.
// The rule is read once per group and shared by every row built from it.
func walk(doc *model.LogDocument, fn func(Result) bool) {
	for ri, rec := range doc.Records {
		if rec.FlowRecords == nil {
			continue
		}
		for fi, flow := range rec.FlowRecords.Flows {
			for gi, group := range flow.FlowGroups {
				rule := group.Rule
				for ti, raw := range group.FlowTuples {
					loc := Location{Record: ri, Flow: fi, Group: gi, Tuple: ti}
					res := Result{Loc: loc}

					tup, err := parser.ParseTuple(raw)
					if err != nil {
						res.Err = err
					} else {
						res.Row = model.Row{
							Time:      rec.Time,
							EventType: rec.Category,
							Rule:      rule,
							Protocol:  tup.Protocol,
							Port:      tup.DstPort,
							SrcIP:     tup.SrcIP,
							DestIP:    tup.DstIP,
							Action:    tup.Action,
						}
					}

					if !fn(res) {
						return
					}
				}
			}
		}
	}
}
