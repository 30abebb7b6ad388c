package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/flowscope/internal/hub"
	"github.com/atikulmunna/flowscope/internal/metrics"
)

// Stats holds a point-in-time snapshot of aggregated report metrics.
type Stats struct {
	Uptime         string         `json:"uptime"`
	Reloads        int64          `json:"reloads"`
	Failures       int64          `json:"failures"`
	LastReload     *time.Time     `json:"last_reload,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	TotalRows      int            `json:"total_rows"`
	Allowed        int            `json:"allowed"`
	Denied         int            `json:"denied"`
	Unclassified   int            `json:"unclassified"`
	Skipped        int            `json:"skipped"`
	ActionCounts   map[string]int `json:"action_counts"`
	DroppedUpdates int64          `json:"dropped_updates"`
	FilesWatched   int            `json:"files_watched"`
}

// Aggregator subscribes to the Hub and keeps running totals of report builds.
type Aggregator struct {
	mu         sync.RWMutex
	startTime  time.Time
	reloads    int64
	failures   int64
	lastReload time.Time
	lastError  string
	last       Stats // counts from the latest good report
	dropped    func() int64
	fileCount  func() int
	updates    <-chan hub.Update
	metrics    *metrics.Metrics
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher
// respectively. m may be nil.
func New(updates <-chan hub.Update, droppedFn func() int64, fileCountFn func() int, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		startTime: time.Now(),
		dropped:   droppedFn,
		fileCount: fileCountFn,
		updates:   updates,
		metrics:   m,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.last
	s.ActionCounts = make(map[string]int, len(a.last.ActionCounts))
	for k, v := range a.last.ActionCounts {
		s.ActionCounts[k] = v
	}

	s.Uptime = time.Since(a.startTime).Truncate(time.Second).String()
	s.Reloads = a.reloads
	s.Failures = a.failures
	s.LastError = a.lastError
	if !a.lastReload.IsZero() {
		t := a.lastReload
		s.LastReload = &t
	}
	s.DroppedUpdates = a.dropped()
	s.FilesWatched = a.fileCount()
	return s
}

// Start consumes updates until the context is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-a.updates:
			if !ok {
				return
			}
			a.record(u)
		}
	}
}

// record folds one update into the totals.
func (a *Aggregator) record(u hub.Update) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if u.Report == nil {
		a.failures++
		a.lastError = u.Err
		if a.metrics != nil {
			a.metrics.ObserveFailure()
		}
		return
	}

	r := u.Report
	a.reloads++
	a.lastReload = u.At
	a.lastError = ""
	a.last = Stats{
		TotalRows:    r.TotalRows,
		Allowed:      len(r.Allowed),
		Denied:       len(r.Denied),
		Unclassified: len(r.Unclassified),
		Skipped:      len(r.Skipped),
		ActionCounts: r.ActionCounts,
	}
	if a.metrics != nil {
		a.metrics.ObserveReport(r)
	}
}
