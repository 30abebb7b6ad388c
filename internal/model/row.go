package model

// NullMarker is how a missing value is displayed.
const NullMarker = "None"

// Action codes carried in the last tuple field.
const (
	ActionAllowed      = "A"
	ActionAllowedBegin = "B"
	ActionAllowedEnd   = "E"
	ActionDenied       = "D"
)

// Columns is the fixed column order of a Row.
var Columns = []string{"Date/Time", "eventtype", "rule", "protocol", "port", "srcIP", "destIP", "action"}

// Row is one flattened flow tuple with the context it inherited from its
// record and group.
type Row struct {
	Time      string  `json:"time"`
	EventType string  `json:"eventtype"`
	Rule      *string `json:"rule"`
	Protocol  string  `json:"protocol"`
	Port      string  `json:"port"`
	SrcIP     string  `json:"srcIP"`
	DestIP    string  `json:"destIP"`
	Action    string  `json:"action"`
}

// RuleString returns the rule, or NullMarker when it is absent.
func (r Row) RuleString() string {
	if r.Rule == nil {
		return NullMarker
	}
	return *r.Rule
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return []string{r.Time, r.EventType, r.RuleString(), r.Protocol, r.Port, r.SrcIP, r.DestIP, r.Action}
}
