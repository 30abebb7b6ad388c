package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
  "records": [
    {
      "time": "2024-01-01T00:00:00Z",
      "category": "Traffic",
      "flowRecords": {
        "flows": [
          {"flowGroups": [
            {"rule": "allow-web", "flowTuples": ["1,10.0.0.1,10.0.0.2,2,443,tcp,3,A"]},
            {"flowTuples": ["1,10.0.0.3,10.0.0.4,2,22,tcp,3,D"]}
          ]}
        ]
      }
    }
  ]
}`

func TestLoad(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(doc.Records))
	}
	rec := doc.Records[0]
	if rec.Time != "2024-01-01T00:00:00Z" {
		t.Errorf("expected time 2024-01-01T00:00:00Z, got %q", rec.Time)
	}
	if rec.Category != "Traffic" {
		t.Errorf("expected category Traffic, got %q", rec.Category)
	}

	groups := rec.FlowRecords.Flows[0].FlowGroups
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Rule == nil || *groups[0].Rule != "allow-web" {
		t.Errorf("expected rule allow-web, got %v", groups[0].Rule)
	}
	if groups[1].Rule != nil {
		t.Errorf("expected nil rule for group without one, got %q", *groups[1].Rule)
	}
}

func TestLoadNullRule(t *testing.T) {
	doc, err := Load(strings.NewReader(`{"records":[{"flowRecords":{"flows":[{"flowGroups":[{"rule":null,"flowTuples":[]}]}]}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Records[0].FlowRecords.Flows[0].FlowGroups[0].Rule != nil {
		t.Error("expected null rule to decode as nil")
	}
}

func TestLoadEmptyRecords(t *testing.T) {
	doc, err := Load(strings.NewReader(`{"records":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Records) != 0 {
		t.Errorf("expected no records, got %d", len(doc.Records))
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{"records": [`))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Field != "" {
		t.Errorf("expected no field for syntax error, got %q", pe.Field)
	}
}

func TestLoadTrailingData(t *testing.T) {
	_, err := Load(strings.NewReader(`{"records":[]} {"records": garbage`))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for trailing garbage, got %v", err)
	}

	_, err = Load(strings.NewReader(`{"records":[]} {"records":[]}`))
	if !errors.Is(err, ErrTrailingData) {
		t.Errorf("expected ErrTrailingData for second document, got %v", err)
	}
}

func TestLoadTrailingWhitespace(t *testing.T) {
	if _, err := Load(strings.NewReader("{\"records\":[]}\n\n  ")); err != nil {
		t.Errorf("expected trailing whitespace to be accepted, got %v", err)
	}
}

func TestLoadMissingKeys(t *testing.T) {
	cases := map[string]string{
		`{}`:                               "records",
		`{"records": null}`:                "records",
		`{"records":[{"time":"x"}]}`:       "records[0].flowRecords",
		`{"records":[{"flowRecords":{}}]}`: "records[0].flowRecords.flows",
		`{"records":[{"flowRecords":{"flows":[{}]}}]}`:                            "records[0].flowRecords.flows[0].flowGroups",
		`{"records":[{"flowRecords":{"flows":[{"flowGroups":[{"rule":"r"}]}]}}]}`: "records[0].flowRecords.flows[0].flowGroups[0].flowTuples",
	}

	for input, field := range cases {
		_, err := Load(strings.NewReader(input))

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: expected ParseError, got %v", input, err)
			continue
		}
		if pe.Field != field {
			t.Errorf("%s: expected field %q, got %q", input, field, pe.Field)
		}
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("%s: expected ErrMissingKey in chain", input)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowlog.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(doc.Records))
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadFile(path)

	var mfe *MissingFileError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFileError, got %v", err)
	}
	if mfe.Path != path {
		t.Errorf("expected path %q, got %q", path, mfe.Path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected fs.ErrNotExist in chain")
	}
}

func TestLoadFileParseErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Path != path {
		t.Errorf("expected path %q, got %q", path, pe.Path)
	}
}
