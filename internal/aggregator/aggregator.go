package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/logformat/internal/model"
)

const epsWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of aggregated metrics.
type Stats struct {
	Uptime            string           `json:"uptime"`
	TotalLines        int64            `json:"total_lines"`
	LinesWithEntities int64            `json:"lines_with_entities"`
	TotalEntities     int64            `json:"total_entities"`
	RejectedSpans     int64            `json:"rejected_spans"`
	EPS               float64          `json:"eps"`
	SourceCounts      map[string]int64 `json:"source_counts"`
	DroppedLogs       int64            `json:"dropped_logs"`
	FilesWatched      int              `json:"files_watched"`
}

// Aggregator subscribes to the Hub and computes time-windowed metrics.
type Aggregator struct {
	mu           sync.RWMutex
	startTime    time.Time
	stats        Stats
	sourceCounts map[string]int64
	window       []time.Time // timestamps for EPS calculation
	dropped      func() int64
	fileCount    func() int
	entries      <-chan model.LogEntry
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher respectively.
func New(entries <-chan model.LogEntry, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:    time.Now(),
		sourceCounts: make(map[string]int64),
		dropped:      droppedFn,
		fileCount:    fileCountFn,
		entries:      entries,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.stats
	s.SourceCounts = make(map[string]int64, len(a.sourceCounts))
	for k, v := range a.sourceCounts {
		s.SourceCounts[k] = v
	}

	// Calculate EPS from the sliding window.
	cutoff := time.Now().Add(-epsWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}
	s.EPS = float64(recent) / epsWindow.Seconds()

	s.Uptime = time.Since(a.startTime).Truncate(time.Second).String()
	s.DroppedLogs = a.dropped()
	s.FilesWatched = a.fileCount()
	return s
}

// Start begins consuming entries and updating metrics. Blocks until context is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	// Periodically prune the sliding window.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-a.entries:
			if !ok {
				return
			}
			a.Record(entry)
		case <-ticker.C:
			a.prune()
		}
	}
}

// Record adds an entry to the metrics.
func (a *Aggregator) Record(entry model.LogEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.TotalLines++
	if n := len(entry.Entities); n > 0 {
		a.stats.LinesWithEntities++
		a.stats.TotalEntities += int64(n)
	}
	a.stats.RejectedSpans += int64(entry.Rejected)
	a.sourceCounts[entry.Source]++
	a.window = append(a.window, time.Now())
}

// prune removes timestamps older than the EPS window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-epsWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
