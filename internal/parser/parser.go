package parser

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/flowscope/internal/model"
)

// TupleFields is the minimum number of comma-separated fields in a flow tuple.
const TupleFields = 8

// Field positions inside a flow tuple.
const (
	fieldSrcIP    = 1
	fieldDstIP    = 2
	fieldDstPort  = 4
	fieldProtocol = 5
	fieldAction   = 7
)

// MalformedTupleError reports a tuple string with too few fields.
type MalformedTupleError struct {
	Raw    string
	Fields int
}

func (e *MalformedTupleError) Error() string {
	return fmt.Sprintf("malformed flow tuple %q: %d field(s), need at least %d", e.Raw, e.Fields, TupleFields)
}

// ParseTuple splits a flow tuple string into its positional fields.
// Extra trailing fields (newer export versions append byte counters) are
// kept in Fields and otherwise ignored.
func ParseTuple(raw string) (model.Tuple, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < TupleFields {
		return model.Tuple{}, &MalformedTupleError{Raw: raw, Fields: len(fields)}
	}

	return model.Tuple{
		Fields:   fields,
		SrcIP:    fields[fieldSrcIP],
		DstIP:    fields[fieldDstIP],
		DstPort:  fields[fieldDstPort],
		Protocol: fields[fieldProtocol],
		Action:   fields[fieldAction],
	}, nil
}
