// Package record connects line-oriented input to the parser: it pulls the
// message out of a JSON record (or takes a plain line as-is), parses it and
// splices the template and rendered entities back.
package record

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/parser"
	"github.com/atikulmunna/logformat/internal/render"
)

// Formatter converts raw lines into formatted LogEntry values.
type Formatter interface {
	Format(raw string, source string) model.LogEntry
}

// Options configures a LineFormatter.
type Options struct {
	Field       string      // JSON field holding the message
	EntitiesKey string      // JSON field the rendered entities are written to
	Mode        render.Mode // entity rendering
	Indent      int
	Logger      *slog.Logger
}

// LineFormatter handles both JSON object lines and plain text lines.
type LineFormatter struct {
	opts Options
}

// NewLineFormatter returns a LineFormatter, filling unset options with defaults.
func NewLineFormatter(opts Options) *LineFormatter {
	if opts.Field == "" {
		opts.Field = "message"
	}
	if opts.EntitiesKey == "" {
		opts.EntitiesKey = "log_entities"
	}
	if opts.Mode == "" {
		opts.Mode = render.ModeJSON
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LineFormatter{opts: opts}
}

func (f *LineFormatter) Format(raw string, source string) model.LogEntry {
	entry := base(raw, source)

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if data, msg, ok := f.extract(trimmed); ok {
			f.apply(&entry, msg)
			data[f.opts.Field] = entry.Message
			data[f.opts.EntitiesKey] = f.spliced(entry.Entities)
			entry.Record = data
			return entry
		}
	}

	f.apply(&entry, raw)
	return entry
}

// extract decodes a JSON object and returns it together with its message field.
func (f *LineFormatter) extract(line string) (map[string]any, string, bool) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, "", false // not valid JSON, treat as plain text
	}
	msg, ok := data[f.opts.Field].(string)
	if !ok {
		return nil, "", false
	}
	return data, msg, true
}

// apply parses msg and fills the template, entities and rejection count.
func (f *LineFormatter) apply(entry *model.LogEntry, msg string) {
	onReject := func(span string, err error) {
		entry.Rejected++
		f.opts.Logger.Debug("kept span as text",
			slog.String("source", entry.Source),
			slog.String("span", span),
			slog.Any("error", err))
	}

	parsed := parser.ParseMessage(msg, parser.WithRejectHook(onReject))
	entry.Message = parsed.Message
	if len(parsed.Entities) == 0 {
		return
	}
	entry.Entities = make([]string, len(parsed.Entities))
	for i, e := range parsed.Entities {
		entry.Entities[i] = render.String(f.opts.Mode, e, f.opts.Indent)
	}
}

// spliced returns the value written under EntitiesKey: embedded JSON values
// in JSON mode, strings otherwise.
func (f *LineFormatter) spliced(entities []string) []any {
	out := make([]any, len(entities))
	for i, e := range entities {
		if f.opts.Mode == render.ModeJSON {
			out[i] = json.RawMessage(e)
		} else {
			out[i] = e
		}
	}
	return out
}

// Encode writes entry as one JSON line. Records keep their original fields;
// plain lines are written as the LogEntry itself.
func Encode(entry model.LogEntry) ([]byte, error) {
	var v any = entry
	if entry.Record != nil {
		v = entry.Record
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// base returns a LogEntry with defaults populated.
func base(raw, source string) model.LogEntry {
	return model.LogEntry{
		Timestamp: time.Now(),
		Source:    source,
		Raw:       raw,
		Message:   raw,
	}
}
