package apilog

import (
	"fmt"
	"testing"
	"time"
)

func TestAddKeepsNewestFirst(t *testing.T) {
	b := NewBuffer(10)

	b.Add(Entry{ID: "first", Direction: DirectionOutgoing})
	b.Add(Entry{ID: "second", Direction: DirectionIncoming})

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	if snap[0].ID != "second" || snap[1].ID != "first" {
		t.Fatalf("expected newest first, got %q then %q", snap[0].ID, snap[1].ID)
	}
}

func TestAddTruncatesAtCapacity(t *testing.T) {
	b := NewBuffer(3)

	for i := 0; i < 5; i++ {
		b.Add(Entry{ID: fmt.Sprintf("e%d", i)})
	}

	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected capacity-bounded log, got %d entries", len(snap))
	}
	if snap[0].ID != "e4" || snap[2].ID != "e2" {
		t.Fatalf("expected e4..e2 retained, got %q..%q", snap[0].ID, snap[2].ID)
	}
}

func TestDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	if b.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, b.Capacity())
	}
}

func TestAddStampsMissingTimestamp(t *testing.T) {
	b := NewBuffer(10)
	b.Add(Entry{ID: "a"})
	if b.Snapshot()[0].Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be stamped")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := NewBuffer(10)
	b.Add(Entry{ID: "a"})

	snap := b.Snapshot()
	snap[0].ID = "mutated"

	if b.Snapshot()[0].ID != "a" {
		t.Fatalf("expected snapshot mutation to not affect the buffer")
	}
}

func TestSubscribeReceivesNewEntries(t *testing.T) {
	b := NewBuffer(10)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Add(Entry{ID: "live"})

	select {
	case e := <-ch:
		if e.ID != "live" {
			t.Fatalf("unexpected entry %q", e.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for fan-out")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBuffer(10)
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	b.Add(Entry{ID: "late"})

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
}
