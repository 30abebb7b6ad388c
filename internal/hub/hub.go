package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/atikulmunna/flowscope/internal/report"
)

const subscriberBuffer = 16

// Builder produces a report for the flow log at path.
type Builder func(path string) (*report.Report, error)

// Update is the outcome of one rebuild. Exactly one of Report and Err is set.
type Update struct {
	Path   string         `json:"path"`
	At     time.Time      `json:"at"`
	Report *report.Report `json:"report,omitempty"`
	Err    string         `json:"error,omitempty"`
}

// Hub rebuilds reports when input paths change and broadcasts each Update to
// all subscribers. The latest good report stays available to late readers.
type Hub struct {
	build       Builder
	input       <-chan string
	mu          sync.RWMutex
	subscribers map[chan Update]struct{}
	latest      *report.Report
	dropped     int64
}

// New creates a Hub that rebuilds with build for every path read from input.
func New(input <-chan string, build Builder) *Hub {
	return &Hub{
		build:       build,
		input:       input,
		subscribers: make(map[chan Update]struct{}),
	}
}

// Subscribe returns a buffered channel that will receive every Update.
func (h *Hub) Subscribe() <-chan Update {
	ch := make(chan Update, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (h *Hub) Unsubscribe(sub <-chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		if ch == sub {
			delete(h.subscribers, ch)
			close(ch)
			return
		}
	}
}

// Latest returns the most recent successful report, or nil.
func (h *Hub) Latest() *report.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Dropped returns the total number of updates dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Rebuild builds the report for path and broadcasts the outcome.
func (h *Hub) Rebuild(path string) Update {
	u := Update{Path: path, At: time.Now()}
	rep, err := h.build(path)
	if err != nil {
		u.Err = err.Error()
		log.Printf("rebuild %s failed: %v", path, err)
	} else {
		u.Report = rep
	}
	h.broadcast(u)
	return u
}

// Start rebuilds for every path read from the input channel.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-h.input:
			if !ok {
				return
			}
			h.Rebuild(path)
		}
	}
}

// broadcast records the update and sends it to all subscribers.
// If a subscriber's channel is full, the update is dropped for that subscriber.
func (h *Hub) broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if u.Report != nil {
		h.latest = u.Report
	}
	for ch := range h.subscribers {
		select {
		case ch <- u:
		default:
			h.dropped++
			log.Printf("hub: dropped update for slow consumer (total dropped: %d)", h.dropped)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Update]struct{})
}
