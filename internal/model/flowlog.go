package model

// LogDocument is the root of a flow log export.
type LogDocument struct {
	Records []Record `json:"records"`
}

// Record is one time-stamped entry in the log.
type Record struct {
	Time        string       `json:"time"`
	Category    string       `json:"category"` // event type, e.g. "NetworkSecurityGroupFlowEvent"
	FlowRecords *FlowRecords `json:"flowRecords"`
}

// FlowRecords wraps the flows of a record.
type FlowRecords struct {
	Flows []Flow `json:"flows"`
}

// Flow holds the rule-scoped groups of one flow.
type Flow struct {
	FlowGroups []FlowGroup `json:"flowGroups"`
}

// FlowGroup is a set of tuples matched by the same rule.
// Rule is nil when the export omits it or sends null.
type FlowGroup struct {
	Rule       *string  `json:"rule"`
	FlowTuples []string `json:"flowTuples"`
}

// Tuple is a decoded flow tuple string.
type Tuple struct {
	Fields   []string // all comma-separated fields, as read
	SrcIP    string
	DstIP    string
	DstPort  string
	Protocol string
	Action   string
}
