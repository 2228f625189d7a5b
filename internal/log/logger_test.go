package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

func TestMemoryLoggerSequencing(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewRoundStartEvent(1))
	l.Log(NewMoveEvent(2, geom.Vector{X: 1, Y: 1}, geom.Vector{X: 1, Y: 0}))
	l.Log(NewCheckpointEvent(2, 1, 3))

	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Seq != i+1 {
			t.Errorf("event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}
	if got := l.EventsOfType(EventMove); len(got) != 1 || got[0].Player != 2 {
		t.Errorf("EventsOfType(Move) = %+v", got)
	}
	if l.LastEvent().Type != EventCheckpoint {
		t.Errorf("expected last event Checkpoint, got %s", l.LastEvent().Type)
	}
	if since := l.Since(2); len(since) != 1 || since[0].Seq != 3 {
		t.Errorf("Since(2) = %+v", since)
	}
	if since := l.Since(5); since != nil {
		t.Errorf("Since past end should be nil, got %+v", since)
	}
}

func TestTextLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	e := NewWinEvent(1, "last checkpoint")
	e.Round = 4
	e.Phase = "Execution"
	e.Register = 2
	l.Log(e)

	out := buf.String()
	if !strings.HasPrefix(out, "R4  Execution #3") {
		t.Errorf("unexpected prefix: %q", out)
	}
	if !strings.Contains(out, "P1 wins! (last checkpoint)") {
		t.Errorf("missing details: %q", out)
	}
	if len(l.Events()) != 1 {
		t.Errorf("text logger should retain events")
	}
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := NewMemoryLogger(), NewMemoryLogger()
	m := NewMultiLogger(a, nil, b)
	m.Log(NewAbortEvent("test"))
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected both sinks to receive the event")
	}
	if len(m.Events()) != 1 {
		t.Errorf("multi logger should report the first sink's events")
	}
}

func TestZstdLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "game.jsonl.zst")
	l, err := NewZstdLogger(path)
	if err != nil {
		t.Fatalf("NewZstdLogger: %v", err)
	}
	l.Log(NewPhaseChangeEvent(1, "Programming"))
	l.Log(NewRevealEvent(3, "Move II", 670))
	l.Log(NewDamageEvent(3, "Spam", 2, "reboot"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadEventsFile(path)
	if err != nil {
		t.Fatalf("ReadEventsFile: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 archived events, got %d", len(events))
	}
	if events[1].Type != EventReveal || events[1].Card != "Move II" || events[1].Seq != 2 {
		t.Errorf("unexpected archived event: %+v", events[1])
	}
	if events[2].Type != EventDamage {
		t.Errorf("expected Damage, got %s", events[2].Type)
	}
}

func TestEventTypeText(t *testing.T) {
	for e := EventPhaseChange; e <= EventAbort; e++ {
		b, _ := e.MarshalText()
		var back EventType
		if err := back.UnmarshalText(b); err != nil || back != e {
			t.Errorf("%s did not round-trip: %v", e, err)
		}
	}
	var bad EventType
	if err := bad.UnmarshalText([]byte("Nope")); err == nil {
		t.Error("expected error for unknown event type")
	}
}
