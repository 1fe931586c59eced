package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avi-assistant/avicore/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  string
	}{
		{1, "TRACE"},
		{observability.LevelVerbose, "DEBUG"},
		{observability.LevelInfo, "INFO"},
		{observability.LevelWarning, "WARN"},
		{observability.LevelError, "ERROR"},
		{21, "FATAL"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
	}

	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestEmit_StampsTimestamp(t *testing.T) {
	rec := observability.NewRecorder()

	observability.Emit(context.Background(), rec, observability.Event{Type: "router.routed"})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Timestamp.IsZero() {
		t.Error("Emit should stamp a zero timestamp")
	}
}

func TestEmit_KeepsTimestamp(t *testing.T) {
	rec := observability.NewRecorder()
	at := time.Unix(1_700_000_000, 0)

	observability.Emit(context.Background(), rec, observability.Event{Type: "x", Timestamp: at})

	if got := rec.Events()[0].Timestamp; !got.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", got, at)
	}
}

func TestEmit_NilObserver(t *testing.T) {
	observability.Emit(context.Background(), nil, observability.Event{Type: "x"})
}

func TestRecorder_Queries(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := context.Background()

	rec.OnEvent(ctx, observability.Event{Type: "dialogue.reply.set", Data: map[string]any{"n": 1}})
	rec.OnEvent(ctx, observability.Event{Type: "dialogue.reply.rejected"})
	rec.OnEvent(ctx, observability.Event{Type: "dialogue.reply.set", Data: map[string]any{"n": 2}})

	wantTypes := []observability.EventType{"dialogue.reply.set", "dialogue.reply.rejected", "dialogue.reply.set"}
	if got := rec.Types(); !slices.Equal(got, wantTypes) {
		t.Errorf("Types() = %v, want %v", got, wantTypes)
	}
	if got := rec.Count("dialogue.reply.set"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	last, ok := rec.Last("dialogue.reply.set")
	if !ok || last.Data["n"] != 2 {
		t.Errorf("Last() = %v, %v; want n=2", last, ok)
	}
	if _, ok := rec.Last("router.fallback"); ok {
		t.Error("Last() of unseen type should report false")
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset() should drop all events")
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := observability.NewRecorder()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.OnEvent(context.Background(), observability.Event{Type: "memory.sweep"})
		}()
	}
	wg.Wait()

	if got := rec.Count("memory.sweep"); got != 20 {
		t.Errorf("Count() = %d, want 20", got)
	}
}

func TestMultiObserver_FanOutAndNilFiltering(t *testing.T) {
	a := observability.NewRecorder()
	b := observability.NewRecorder()

	multi := observability.NewMultiObserver(nil, a, nil, b)
	multi.OnEvent(context.Background(), observability.Event{Type: "kernel.utterance"})

	if a.Count("kernel.utterance") != 1 || b.Count("kernel.utterance") != 1 {
		t.Errorf("fan-out counts = %d, %d; want 1, 1", a.Count("kernel.utterance"), b.Count("kernel.utterance"))
	}
}

func TestSlogObserver_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{"verbose at debug handler", observability.LevelVerbose, slog.LevelDebug, true},
		{"verbose at info handler", observability.LevelVerbose, slog.LevelInfo, false},
		{"info at warn handler", observability.LevelInfo, slog.LevelWarn, false},
		{"warning at warn handler", observability.LevelWarning, slog.LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.minLevel}))

			observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
				Type:  "router.fallback",
				Level: tt.level,
			})

			if hasOutput := buf.Len() > 0; hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_SortedAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
		Type:   "router.routed",
		Level:  observability.LevelInfo,
		Source: "router.RunIntent",
		Data:   map[string]any{"skill": "weather", "intent": "weather@get_forecast"},
	})

	out := buf.String()
	if !strings.Contains(out, "msg=router.routed") {
		t.Errorf("expected event type as message, got: %s", out)
	}
	if !strings.Contains(out, "source=router.RunIntent") {
		t.Errorf("expected source attribute, got: %s", out)
	}
	if i, j := strings.Index(out, "intent="), strings.Index(out, "skill="); i < 0 || j < 0 || i > j {
		t.Errorf("expected sorted data attributes, got: %s", out)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"noop", "slog"} {
		if _, err := observability.GetObserver(name); err != nil {
			t.Errorf("GetObserver(%q) error = %v", name, err)
		}
	}
	if _, err := observability.GetObserver("nonexistent"); err == nil {
		t.Error("GetObserver(nonexistent) should fail")
	}

	rec := observability.NewRecorder()
	observability.RegisterObserver("test-recorder", rec)

	obs, err := observability.GetObserver("test-recorder")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "x"})
	if rec.Count("x") != 1 {
		t.Error("registered observer did not receive the event")
	}

	if !slices.Contains(observability.ObserverNames(), "test-recorder") {
		t.Errorf("ObserverNames() = %v, missing test-recorder", observability.ObserverNames())
	}
}
