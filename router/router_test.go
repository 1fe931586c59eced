package router_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avi-assistant/avicore/fallback"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/observability"
	"github.com/avi-assistant/avicore/router"
	"github.com/avi-assistant/avicore/skills"
)

type fallbackCall struct {
	kind    fallback.Kind
	message string
	args    []string
}

type fixture struct {
	router   *router.Router
	exec     *skills.LocalExecutor
	events   *observability.Recorder
	mu       sync.Mutex
	fallback []fallbackCall
	routed   []intent.Intent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		exec:   skills.NewLocalExecutor(),
		events: observability.NewRecorder(),
	}

	reg := skills.NewRegistry()
	require.NoError(t, reg.Register(skills.Skill{ID: "weather", Manifest: skills.DefaultManifest("weather")}))
	require.NoError(t, reg.Register(skills.Skill{ID: "lights", Status: skills.StatusDisabled}))
	require.NoError(t, reg.Register(skills.Skill{ID: "broken", Status: skills.StatusBad, Err: skills.ErrManifestInvalid}))
	require.NoError(t, reg.Register(skills.Skill{ID: "crashy"}))

	f.exec.Handle("weather", func(_ context.Context, in intent.Intent) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.routed = append(f.routed, in)
		return nil
	})
	f.exec.Handle("crashy", func(context.Context, intent.Intent) error {
		return errors.New("boom")
	})

	d := fallback.NewDispatcher()
	for _, k := range fallback.Kinds() {
		d.Register(k, fallback.HandlerFunc(func(_ context.Context, message string, args []string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.fallback = append(f.fallback, fallbackCall{kind: k, message: message, args: args})
		}))
	}

	f.router = router.New(reg, f.exec, d, router.WithObserver(f.events))
	return f
}

func (f *fixture) fallbacks() []fallbackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fallbackCall(nil), f.fallback...)
}

func TestRunIntent_Routes(t *testing.T) {
	f := newFixture(t)
	in := intent.New("what's the weather", "weather@get_forecast", 0.93)

	out := f.router.RunIntent(context.Background(), in)

	assert.True(t, out.Routed)
	assert.Equal(t, "weather", out.Skill)
	assert.Equal(t, "get_forecast", out.IntentID)
	assert.NoError(t, out.Err)
	require.Len(t, f.routed, 1)
	assert.Equal(t, in, f.routed[0])
	assert.Empty(t, f.fallbacks())

	ev, ok := f.events.Last(router.EventRouted)
	require.True(t, ok)
	assert.Equal(t, "weather", ev.Data["skill"])
	assert.Equal(t, "get_forecast", ev.Data["intent"])
}

func TestRunIntent_Fallbacks(t *testing.T) {
	noName := intent.Intent{Input: "hmm", Intent: &intent.Info{Probability: 0.1}}

	tests := []struct {
		name    string
		in      intent.Intent
		kind    fallback.Kind
		message string
		err     error
	}{
		{"no intent", intent.NotRecognized("blah blah"), fallback.NotUnderstood, "blah blah", router.ErrNotRecognized},
		{"no intent name", noName, fallback.NotUnderstood, "hmm", router.ErrNotRecognized},
		{"no separator", intent.New("bogus", "bogus", 1), fallback.NotUnderstood, "bogus", intent.ErrMalformedName},
		{"empty skill", intent.New("x", "@x", 1), fallback.NotUnderstood, "x", intent.ErrMalformedName},
		{"unregistered", intent.New("play jazz", "unregistered@x", 1), fallback.NotInstalled, "play jazz", skills.ErrSkillNotFound},
		{"disabled", intent.New("lights on", "lights@on", 1), fallback.NotEnabled, "lights", router.ErrSkillDisabled},
		{"bad manifest", intent.New("fix", "broken@x", 1), fallback.BadSkill, "broken", skills.ErrManifestInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			var out router.Outcome
			require.NotPanics(t, func() { out = f.router.RunIntent(context.Background(), tt.in) })

			assert.False(t, out.Routed)
			assert.Equal(t, tt.kind, out.Fallback)
			assert.ErrorIs(t, out.Err, tt.err)

			calls := f.fallbacks()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.kind, calls[0].kind)
			assert.Equal(t, tt.message, calls[0].message)
			assert.Empty(t, f.routed)

			ev, ok := f.events.Last(router.EventFallback)
			require.True(t, ok)
			assert.Equal(t, tt.kind.String(), ev.Data["kind"])
		})
	}
}

func TestRunIntent_SkillErrorIsNotPropagated(t *testing.T) {
	f := newFixture(t)

	out := f.router.RunIntent(context.Background(), intent.New("go", "crashy@run", 1))

	assert.False(t, out.Routed)
	assert.Equal(t, fallback.ErrorOnSkill, out.Fallback)
	assert.ErrorContains(t, out.Err, "boom")

	calls := f.fallbacks()
	require.Len(t, calls, 1)
	assert.Equal(t, "crashy", calls[0].message)
	require.Len(t, calls[0].args, 1)
	assert.Contains(t, calls[0].args[0], "boom")
}

func TestRunIntent_SkillWithoutHandler(t *testing.T) {
	f := newFixture(t)
	reg := skills.NewRegistry()
	require.NoError(t, reg.Register(skills.Skill{ID: "timer"}))
	r := router.New(reg, f.exec, nil)

	out := r.RunIntent(context.Background(), intent.New("set a timer", "timer@set", 1))

	assert.Equal(t, fallback.ErrorOnSkill, out.Fallback)
	assert.ErrorIs(t, out.Err, skills.ErrNoHandler)
}

func TestRunIntent_NoExecutor(t *testing.T) {
	reg := skills.NewRegistry()
	require.NoError(t, reg.Register(skills.Skill{ID: "weather"}))
	d := fallback.NewDispatcher()
	r := router.New(reg, nil, d)

	out := r.RunIntent(context.Background(), intent.New("rain?", "weather@rain", 1))

	assert.Equal(t, fallback.ErrorOnCore, out.Fallback)
	assert.ErrorIs(t, out.Err, router.ErrNoExecutor)
}

func TestRunIntent_UnregisteredFallbackDoesNotAbort(t *testing.T) {
	r := router.New(nil, nil, fallback.NewDispatcher())

	out := r.RunIntent(context.Background(), intent.New("x", "nothing@here", 1))

	assert.Equal(t, fallback.NotInstalled, out.Fallback)
	assert.False(t, r.Dispatcher().Registered(fallback.NotInstalled))
}

func TestRunIntent_Concurrent(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := "weather@get_forecast"
			if i%2 == 1 {
				name = fmt.Sprintf("missing%d@x", i)
			}
			f.router.RunIntent(context.Background(), intent.New("q", name, 1))
		}()
	}
	wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.routed, 16)
	assert.Len(t, f.fallback, 16)
	assert.Equal(t, 16, f.events.Count(router.EventRouted))
	assert.Equal(t, 16, f.events.Count(router.EventFallback))
}
