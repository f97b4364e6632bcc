package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubPublisher struct {
	id       string
	typ      string
	err      error
	closeErr error
	calls    int
	closed   bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return s.closeErr
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}

	d := fanout.Publish(context.Background(), Event{})
	if len(d.Delivered) != 1 || d.Delivered[0] != "ok" {
		t.Fatalf("expected only ok delivered, got %v", d.Delivered)
	}
	if len(d.Failures) != 1 || d.Err() == nil {
		t.Fatalf("expected one failure, got %v", d.Failures)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every publisher to be called once")
	}
}

func TestFanoutCloseClosesAll(t *testing.T) {
	a := &stubPublisher{id: "a", typ: "sqs"}
	b := &stubPublisher{id: "b", typ: "pubsub", closeErr: errors.New("stuck")}

	err := NewFanout([]Publisher{a, b}).Close()
	if err == nil {
		t.Fatalf("expected close error to surface")
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected both publishers closed")
	}
}

func TestNilFanoutIsInert(t *testing.T) {
	var f *Fanout
	if d := f.Publish(context.Background(), Event{}); len(d.Delivered) != 0 || d.Err() != nil {
		t.Fatalf("nil fanout publish = %+v", d)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout should be empty")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllClosesOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	reg := Registry{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
	}

	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "missing"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if !built.closed {
		t.Fatalf("expected already-built publisher to be closed")
	}
}

func TestFanoutKeepsPublisherOrder(t *testing.T) {
	pubs := make([]Publisher, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		pubs = append(pubs, &stubPublisher{id: id, typ: "http"})
	}

	d := NewFanout(pubs).Publish(context.Background(), Event{})
	if got := strings.Join(d.Delivered, ""); got != "abcdefgh" {
		t.Fatalf("delivered order = %s", got)
	}
}
