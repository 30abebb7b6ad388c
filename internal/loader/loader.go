package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/atikulmunna/flowscope/internal/model"
)

// MissingFileError is returned when the input file does not exist.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("flow log %s not found", e.Path)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// ParseError is returned when the input is not valid JSON or lacks one of
// the structural keys. Field is empty for syntax errors.
type ParseError struct {
	Path  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	src := e.Path
	if src == "" {
		src = "input"
	}
	if e.Field != "" {
		return fmt.Sprintf("parse %s: %s: %v", src, e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", src, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingKey is wrapped by ParseError when a structural key is absent or null.
var ErrMissingKey = errors.New("missing required key")

// ErrTrailingData is wrapped by ParseError when another JSON value follows the document.
var ErrTrailingData = errors.New("unexpected data after document")

// LoadFile opens path and decodes it as a flow log document.
func LoadFile(path string) (*model.LogDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("open flow log: %w", err)
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Load decodes a flow log document from r and checks its structure.
func Load(r io.Reader) (*model.LogDocument, error) {
	var raw struct {
		Records *[]model.Record `json:"records"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return nil, &ParseError{Err: err}
	}
	if raw.Records == nil {
		return nil, &ParseError{Field: "records", Err: ErrMissingKey}
	}

	doc := &model.LogDocument{Records: *raw.Records}
	if err := validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validate walks the document and reports the first missing structural key.
func validate(doc *model.LogDocument) error {
	for ri, rec := range doc.Records {
		if rec.FlowRecords == nil {
			return missing(fmt.Sprintf("records[%d].flowRecords", ri))
		}
		if rec.FlowRecords.Flows == nil {
			return missing(fmt.Sprintf("records[%d].flowRecords.flows", ri))
		}
		for fi, flow := range rec.FlowRecords.Flows {
			if flow.FlowGroups == nil {
				return missing(fmt.Sprintf("records[%d].flowRecords.flows[%d].flowGroups", ri, fi))
			}
			for gi, group := range flow.FlowGroups {
				if group.FlowTuples == nil {
					return missing(fmt.Sprintf("records[%d].flowRecords.flows[%d].flowGroups[%d].flowTuples", ri, fi, gi))
				}
			}
		}
	}
	return nil
}

func missing(field string) error {
	return &ParseError{Field: field, Err: ErrMissingKey}
}
