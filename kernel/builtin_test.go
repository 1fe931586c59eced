package kernel_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/fallback"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/kernel"
	"github.com/avi-assistant/avicore/skills"
)

func TestRunIntent_GoAgain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out := h.k.RunIntent(ctx, intent.New("again", kernel.IntentGoAgain, 1))
	if out.Routed || !errors.Is(out.Err, kernel.ErrNothingToRepeat) {
		t.Errorf("got %+v, want ErrNothingToRepeat", out)
	}

	h.k.RunIntent(ctx, intent.New("weather in Porto", "weather@get_forecast", 1))
	out = h.k.RunIntent(ctx, intent.New("again", kernel.IntentGoAgain, 1))
	if !out.Routed || out.Skill != "weather" || out.IntentID != "get_forecast" {
		t.Errorf("got %+v, want weather re-routed", out)
	}

	got := h.routed()
	if len(got) != 2 || got[1].Input != "weather in Porto" {
		t.Errorf("got routed intents %+v, want the forecast twice", got)
	}
}

func TestRunIntent_RepeatLast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.exec.Handle("weather", func(ctx context.Context, _ intent.Intent) error {
		h.k.Replies().SetReply(ctx, dialogue.Request{Skill: "weather", SkillRequest: "Which city?"})
		return nil
	})
	h.k.RunIntent(ctx, intent.New("weather", "weather@get_forecast", 1))
	h.k.Replies().Wait()

	out := h.k.RunIntent(ctx, intent.New("say that again", kernel.IntentRepeat, 1))
	if !out.Routed || out.Skill != "weather" {
		t.Fatalf("got %+v, want repeat for weather", out)
	}

	var n int
	for _, text := range h.speech.Texts() {
		if text == "Which city?" {
			n++
		}
	}
	if n != 2 {
		t.Errorf("prompt spoken %d times, want 2", n)
	}
}

func TestRunIntent_RepeatForbiddenByManifest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := skills.DefaultManifest("alarm")
	m.CanRepeatLastResponse = false
	m.CanGoAgain = false
	if err := h.k.Registry().Register(skills.Skill{ID: "alarm", Manifest: m}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	h.exec.Handle("alarm", func(context.Context, intent.Intent) error { return nil })

	if out := h.k.RunIntent(ctx, intent.New("ring", "alarm@ring", 1)); !out.Routed {
		t.Fatalf("got %+v, want routed", out)
	}

	for _, name := range []string{kernel.IntentRepeat, kernel.IntentGoAgain} {
		out := h.k.RunIntent(ctx, intent.New("again", name, 1))
		if out.Routed || out.Fallback != fallback.NotUnderstood || !errors.Is(out.Err, kernel.ErrRepeatNotAllowed) {
			t.Errorf("%s: got %+v, want ErrRepeatNotAllowed", name, out)
		}
	}

	want := "Sorry, I didn't understand 'again'"
	if texts := h.speech.Texts(); !slices.Contains(texts, want) {
		t.Errorf("spoken %q, want it to contain %q", texts, want)
	}
}
