package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atikulmunna/logformat/internal/config"
	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/output"
	"github.com/atikulmunna/logformat/internal/record"
	"github.com/atikulmunna/logformat/internal/render"
	"github.com/atikulmunna/logformat/internal/store"
)

type failingRenderer struct{ after int }

func (f *failingRenderer) Render(model.LogEntry) error {
	if f.after == 0 {
		return errors.New("disk full")
	}
	f.after--
	return nil
}

func TestFormatLinesJSONRecord(t *testing.T) {
	var buf bytes.Buffer
	f := record.NewLineFormatter(record.Options{Mode: render.ModeJSON, Indent: 2})

	in := `{"level":"info","message":"user User(id = 7)"}` + "\n"
	n, err := formatLines(strings.NewReader(in), "-", f, output.NewJSONRenderer(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}

	want := `{"level":"info","log_entities":[{"id":7}],"message":"user {{ Log Entity 1 }}"}` + "\n"
	if buf.String() != want {
		t.Errorf("got  %q\nwant %q", buf.String(), want)
	}
}

func TestFormatLinesPlainText(t *testing.T) {
	var buf bytes.Buffer
	f := record.NewLineFormatter(record.Options{Mode: render.ModePretty, Indent: 2})

	in := "first A(x = 1)\nno objects here\n"
	n, err := formatLines(strings.NewReader(in), "app.log", f, output.NewTextRenderer(&buf, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}

	out := buf.String()
	for _, want := range []string{"first {{ Log Entity 1 }}", "x = 1", "no objects here", "app.log"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatLinesStopsOnRenderError(t *testing.T) {
	f := record.NewLineFormatter(record.Options{})

	n, err := formatLines(strings.NewReader("a\nb\nc\n"), "in.log", f, &failingRenderer{after: 1})
	if err == nil {
		t.Fatal("expected render error")
	}
	if n != 1 {
		t.Errorf("expected 1 line before failure, got %d", n)
	}
	if !strings.Contains(err.Error(), "line 2 of in.log") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestNewRendererWithStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "entries.db")
	cfg = config.Config{Output: "json", Mode: render.ModeJSON, Indent: 2, Field: "message", EntitiesKey: "log_entities", DB: dbPath}
	defer func() { cfg = config.Config{} }()

	var buf bytes.Buffer
	r, closeRenderer, err := newRenderer(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := formatLines(strings.NewReader("saved X(a = 1)\n"), "-", newFormatter(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closeRenderer()

	if buf.Len() == 0 {
		t.Error("expected output on the writer as well as the store")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer st.Close()

	count, err := st.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored entry, got %d", count)
	}
}
