package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{Type: EventLogin})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for _, typ := range []string{EventLogin, EventRefresh, EventLogout} {
		d.Emit(context.Background(), Event{Type: typ})
	}
	d.Close()

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case e := <-sink.Events():
			got = append(got, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	if strings.Join(got, ",") != "login,refresh,logout" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDispatcherDropIfFullCounts(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event may be held by the delivery goroutine and one by the queue.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Type: EventLogin})
	}
	if d.Dropped() < 8 {
		t.Fatalf("expected at least 8 drops, got %d", d.Dropped())
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{Type: EventLogin})
	d.Emit(context.Background(), Event{Type: EventLogin})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		// Queue and worker may both be occupied; this one must give up.
		d.Emit(ctx, Event{Type: EventLogin})
		d.Emit(ctx, Event{Type: EventLogin})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not honor context cancellation")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherEmitAfterCloseIsNoop(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{Type: EventLogin})

	select {
	case e := <-sink.Events():
		t.Fatalf("unexpected event after close: %+v", e)
	default:
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{Type: EventLogout, UserID: "u-1", Success: true})

	var decoded Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != EventLogout || decoded.UserID != "u-1" || !decoded.Success {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}
