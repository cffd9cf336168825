package tailer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/watcher"
	"github.com/fsnotify/fsnotify"
)

// Options configures a Tailer.
type Options struct {
	// FromStart reads files without a checkpoint from the beginning instead
	// of only following new lines.
	FromStart bool
	Logger    *slog.Logger
}

// Tailer reads newly appended lines from watched files and emits RawLine values.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawLine
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
	opts   Options
}

type trackedFile struct {
	file    *os.File
	reader  *bufio.Reader
	offset  int64  // offset just past the last complete line
	partial string // bytes read after the last newline
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint, opts Options) *Tailer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawLine, 512),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
		opts:   opts,
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start begins processing watcher events. Blocks until context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	// Open all initially watched files.
	for _, p := range t.watch.Paths() {
		if t.openFile(p) && t.opts.FromStart {
			t.readNewLines(ctx, p)
		}
	}

	// Periodic checkpoint save.
	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

// handleEvent dispatches watcher events to the appropriate handler.
func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Create != 0:
		// New file appeared (possibly after rotation).
		t.openFile(ev.Path)
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		// File rotated or deleted: forget its offset and wait for it to come back.
		t.closeFile(ev.Path)
		t.ckpt.Delete(ev.Path)
		go t.reconnect(ctx, ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed offset.
// It reports whether the file is tracked afterwards.
func (t *Tailer) openFile(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		t.opts.Logger.Warn("cannot open file", "path", path, "error", err)
		return false
	}

	var offset int64
	if saved, ok := t.ckpt.Get(path); ok {
		offset = saved
	} else if !t.opts.FromStart {
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	// A checkpoint past the end means the file was truncated.
	if info, err := f.Stat(); err == nil && offset > info.Size() {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		t.opts.Logger.Warn("cannot seek", "path", path, "offset", offset, "error", err)
		f.Close()
		return false
	}

	t.files[path] = &trackedFile{
		file:   f,
		reader: bufio.NewReader(f),
		offset: offset,
	}
	return true
}

// readNewLines reads to EOF and emits complete lines. A trailing partial
// line is kept until its newline arrives.
func (t *Tailer) readNewLines(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	for {
		chunk, err := tf.reader.ReadString('\n')
		if err != nil {
			tf.partial += chunk
			if !errors.Is(err, io.EOF) {
				t.opts.Logger.Warn("read error", "path", path, "error", err)
			}
			break
		}

		line := strings.TrimRight(tf.partial+chunk, "\r\n")
		tf.offset += int64(len(tf.partial) + len(chunk))
		tf.partial = ""

		select {
		case t.out <- model.RawLine{Text: line, Source: path}:
		case <-ctx.Done():
			return
		}
	}

	t.ckpt.Set(path, tf.offset)
}

// closeFile releases a tracked file.
func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}
		if _, err := os.Stat(path); err == nil {
			t.opts.Logger.Info("reconnected to rotated file", "path", path)
			if err := t.watch.ReWatch(path); err != nil {
				t.opts.Logger.Warn("cannot re-watch file", "path", path, "error", err)
			}
			t.openFile(path)
			return
		}
	}
	t.opts.Logger.Warn("gave up reconnecting", "path", path, "retries", 5)
}

// saveCheckpoint persists the current offsets to disk.
func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		t.opts.Logger.Error("checkpoint save failed", "error", err)
	}
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
