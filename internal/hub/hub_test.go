package hub

import (
	"context"
	"testing"
	"time"

	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/record"
)

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := New(input, record.NewLineFormatter(record.Options{}))

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	// Send a line.
	input <- model.RawLine{Text: "saved X(a = 1)", Source: "test.log"}

	// Both subscribers should receive it.
	for name, sub := range map[string]<-chan model.LogEntry{"sub1": sub1, "sub2": sub2} {
		select {
		case e := <-sub:
			if e.Message != "saved {{ Log Entity 1 }}" {
				t.Errorf("%s: expected template, got %q", name, e.Message)
			}
			if len(e.Entities) != 1 {
				t.Errorf("%s: expected 1 entity, got %d", name, len(e.Entities))
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("%s: timed out", name)
		}
	}

	cancel()
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := New(input, record.NewLineFormatter(record.Options{}))

	// Subscribe but never read, simulating a slow consumer.
	_ = h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	// Fill beyond the subscriber buffer (1024).
	for i := 0; i < subscriberBuffer+100; i++ {
		input <- model.RawLine{Text: "line", Source: "test.log"}
	}

	// Give hub time to process.
	time.Sleep(500 * time.Millisecond)

	if h.Dropped() == 0 {
		t.Error("expected dropped entries for slow consumer, got 0")
	}

	cancel()
}

func TestHubClosesSubscribersOnInputClose(t *testing.T) {
	input := make(chan model.RawLine)
	h := New(input, record.NewLineFormatter(record.Options{}))
	sub := h.Subscribe()

	done := make(chan struct{})
	go func() {
		h.Start(context.Background())
		close(done)
	}()
	close(input)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("hub did not stop after input closed")
	}
	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := New(make(chan model.RawLine), record.NewLineFormatter(record.Options{}))
	sub := h.Subscribe()
	keep := h.Subscribe()

	h.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("expected unsubscribed channel to be closed")
	}
	h.broadcast(model.LogEntry{Message: "still delivered"})
	select {
	case e := <-keep:
		if e.Message != "still delivered" {
			t.Errorf("unexpected entry %q", e.Message)
		}
	default:
		t.Error("expected remaining subscriber to receive the entry")
	}
	if h.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", h.Dropped())
	}
}

func TestHubUnsubscribeAfterClose(t *testing.T) {
	input := make(chan model.RawLine)
	h := New(input, record.NewLineFormatter(record.Options{}))
	sub := h.Subscribe()

	close(input)
	h.Start(context.Background())

	// Must not panic on the already closed channel.
	h.Unsubscribe(sub)
}
