package flatten

import (
	"errors"
	"fmt"
	"testing"

	"github.com/atikulmunna/flowscope/internal/model"
	"github.com/atikulmunna/flowscope/internal/parser"
)

func strPtr(s string) *string { return &s }

func doc(rule *string, tuples ...string) *model.LogDocument {
	return &model.LogDocument{Records: []model.Record{{
		Time:     "2024-01-01T00:00:00Z",
		Category: "Traffic",
		FlowRecords: &model.FlowRecords{Flows: []model.Flow{{
			FlowGroups: []model.FlowGroup{{Rule: rule, FlowTuples: tuples}},
		}}},
	}}}
}

// uniform builds r records × f flows × g groups × t tuples.
func uniform(r, f, g, t int) *model.LogDocument {
	d := &model.LogDocument{}
	n := 0
	for ri := 0; ri < r; ri++ {
		rec := model.Record{Time: fmt.Sprintf("t%d", ri), Category: "Traffic", FlowRecords: &model.FlowRecords{}}
		for fi := 0; fi < f; fi++ {
			var flow model.Flow
			for gi := 0; gi < g; gi++ {
				group := model.FlowGroup{Rule: strPtr(fmt.Sprintf("rule-%d-%d-%d", ri, fi, gi))}
				for ti := 0; ti < t; ti++ {
					group.FlowTuples = append(group.FlowTuples, fmt.Sprintf("%d,10.0.0.1,10.0.0.2,1,%d,tcp,I,A", n, n))
					n++
				}
				flow.FlowGroups = append(flow.FlowGroups, group)
			}
			rec.FlowRecords.Flows = append(rec.FlowRecords.Flows, flow)
		}
		d.Records = append(d.Records, rec)
	}
	return d
}

func TestFlattenSingleTuple(t *testing.T) {
	rows, err := Flatten(doc(strPtr("allow-web"), "1,10.0.0.1,10.0.0.2,2,443,tcp,3,A"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	want := []string{"2024-01-01T00:00:00Z", "Traffic", "allow-web", "tcp", "443", "10.0.0.1", "10.0.0.2", "A"}
	got := r.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %s: expected %q, got %q", model.Columns[i], want[i], got[i])
		}
	}
}

func TestFlattenRowCount(t *testing.T) {
	rows, err := Flatten(uniform(3, 2, 4, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3*2*4*5 {
		t.Errorf("expected %d rows, got %d", 3*2*4*5, len(rows))
	}

	// Ports were numbered in document order.
	for i, r := range rows {
		if r.Port != fmt.Sprint(i) {
			t.Fatalf("row %d out of order: port %s", i, r.Port)
		}
	}
}

func TestFlattenIrregular(t *testing.T) {
	d := uniform(2, 1, 1, 3)
	d.Records[1].FlowRecords.Flows[0].FlowGroups[0].FlowTuples = nil
	d.Records = append(d.Records, model.Record{FlowRecords: &model.FlowRecords{}})

	rows, err := Flatten(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestFlattenEmptyDocument(t *testing.T) {
	rows, err := Flatten(&model.LogDocument{})
	if err != nil {
		t.Fatal(err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %v", rows)
	}
}

func TestFlattenRuleInherited(t *testing.T) {
	rows, err := Flatten(uniform(1, 1, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		want := fmt.Sprintf("rule-0-0-%d", i/3)
		if r.RuleString() != want {
			t.Errorf("row %d: expected rule %q, got %q", i, want, r.RuleString())
		}
	}
}

func TestFlattenNullRule(t *testing.T) {
	rows, err := Flatten(doc(nil, "1,a,b,2,80,tcp,3,A", "1,c,d,2,81,tcp,3,D"))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.Rule != nil {
			t.Errorf("expected nil rule, got %q", *r.Rule)
		}
		if r.RuleString() != model.NullMarker {
			t.Errorf("expected %q, got %q", model.NullMarker, r.RuleString())
		}
	}
}

func TestFlattenMalformed(t *testing.T) {
	_, err := Flatten(doc(nil, "1,a,b,2,80,tcp,3,A", "1,a,b,2,80"))

	var te *TupleError
	if !errors.As(err, &te) {
		t.Fatalf("expected TupleError, got %v", err)
	}
	if te.Loc.Tuple != 1 {
		t.Errorf("expected tuple index 1, got %d", te.Loc.Tuple)
	}

	var mte *parser.MalformedTupleError
	if !errors.As(err, &mte) {
		t.Fatalf("expected MalformedTupleError in chain, got %v", err)
	}
}

func TestResults(t *testing.T) {
	results := Results(doc(nil, "1,a,b,2,80,tcp,3,A", "bad", "1,c,d,2,81,tcp,3,D"))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("expected results 0 and 2 to succeed")
	}
	if results[1].Err == nil {
		t.Error("expected result 1 to fail")
	}
	if results[1].Loc.Tuple != 1 {
		t.Errorf("expected failing tuple index 1, got %d", results[1].Loc.Tuple)
	}
}

func TestCollectFailFast(t *testing.T) {
	results := Results(doc(nil, "1,a,b,2,80,tcp,3,A", "bad", "also,bad"))

	rows, failed, err := Collect(results, FailFast)
	if err == nil {
		t.Fatal("expected error")
	}
	if rows != nil || failed != nil {
		t.Error("expected no rows or collected errors in fail-fast mode")
	}

	var te *TupleError
	if !errors.As(err, &te) || te.Loc.Tuple != 1 {
		t.Errorf("expected first failure at tuple 1, got %v", err)
	}
}

func TestCollectSkipMalformed(t *testing.T) {
	results := Results(doc(nil, "1,a,b,2,80,tcp,3,A", "bad", "1,c,d,2,81,tcp,3,D", "also,bad"))

	rows, failed, err := Collect(results, SkipMalformed)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failed))
	}
	if failed[0].Loc.Tuple != 1 || failed[1].Loc.Tuple != 3 {
		t.Errorf("unexpected failure locations: %v, %v", failed[0].Loc, failed[1].Loc)
	}
	if rows[0].Port != "80" || rows[1].Port != "81" {
		t.Errorf("rows out of order: %v", rows)
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{Record: 1, Flow: 2, Group: 3, Tuple: 4}
	want := "records[1].flowRecords.flows[2].flowGroups[3].flowTuples[4]"
	if loc.String() != want {
		t.Errorf("expected %q, got %q", want, loc.String())
	}
}
