package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/record"
)

const subscriberBuffer = 1024

// Hub receives raw lines, formats them, and broadcasts LogEntry values to all subscribers.
type Hub struct {
	formatter   record.Formatter
	input       <-chan model.RawLine
	mu          sync.RWMutex
	subscribers []chan model.LogEntry
	dropped     atomic.Int64
}

// New creates a Hub that reads from the input channel and formats with f.
func New(input <-chan model.RawLine, f record.Formatter) *Hub {
	return &Hub{
		formatter: f,
		input:     input,
	}
}

// Subscribe returns a buffered channel that will receive formatted entries.
// Multiple consumers can subscribe; each gets a copy of every entry.
func (h *Hub) Subscribe() <-chan model.LogEntry {
	ch := make(chan model.LogEntry, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel returned by Subscribe and closes it.
func (h *Hub) Unsubscribe(sub <-chan model.LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Dropped returns the total number of entries dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start begins reading from the input channel, formatting, and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(h.formatter.Format(raw.Text, raw.Source))
		}
	}
}

// broadcast sends an entry to all subscribers.
// If a subscriber's channel is full, the entry is dropped for that subscriber.
func (h *Hub) broadcast(entry model.LogEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- entry:
		default:
			n := h.dropped.Add(1)
			slog.Warn("hub: dropped entry for slow consumer", "total_dropped", n)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
