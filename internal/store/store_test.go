package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atikulmunna/logformat/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "logformat.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndEntities(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	entry := model.LogEntry{
		Timestamp: time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC),
		Source:    "app.log",
		Raw:       "a X(k = 1) b Y(k = 2)",
		Message:   "a {{ Log Entity 1 }} b {{ Log Entity 2 }}",
		Entities:  []string{`{"k": 1}`, `{"k": 2}`},
	}

	id, err := s.Insert(ctx, entry)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a generated ID")
	}

	got, err := s.Entities(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != `{"k": 1}` || got[1] != `{"k": 2}` {
		t.Errorf("unexpected entities %v", got)
	}
}

func TestRenderCounts(t *testing.T) {
	s := openTemp(t)

	for i := 0; i < 3; i++ {
		if err := s.Render(model.LogEntry{Message: "plain", Timestamp: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logformat.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Render(model.LogEntry{Message: "kept", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	n, err := s2.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry after reopen, got %d", n)
	}
}

func TestEntitiesUnknownID(t *testing.T) {
	s := openTemp(t)
	got, err := s.Entities(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entities, got %v", got)
	}
}
