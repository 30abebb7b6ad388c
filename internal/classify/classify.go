package classify

import "github.com/atikulmunna/flowscope/internal/model"

var allowCodes = map[string]bool{
	model.ActionAllowed:      true,
	model.ActionAllowedBegin: true,
	model.ActionAllowedEnd:   true,
}

// Result holds rows partitioned by action code. Each bucket keeps the
// relative order of the input.
type Result struct {
	Allowed      []model.Row `json:"allowed"`
	Denied       []model.Row `json:"denied"`
	Unclassified []model.Row `json:"unclassified"`
}

// IsAllowed reports whether code is one of the allow codes.
func IsAllowed(code string) bool { return allowCodes[code] }

// IsDenied reports whether code is the deny code.
func IsDenied(code string) bool { return code == model.ActionDenied }

// Partition places every row in exactly one bucket.
func Partition(rows []model.Row) Result {
	res := Result{
		Allowed:      []model.Row{},
		Denied:       []model.Row{},
		Unclassified: []model.Row{},
	}
	for _, r := range rows {
		switch {
		case IsAllowed(r.Action):
			res.Allowed = append(res.Allowed, r)
		case IsDenied(r.Action):
			res.Denied = append(res.Denied, r)
		default:
			res.Unclassified = append(res.Unclassified, r)
		}
	}
	return res
}
