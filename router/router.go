// Package router resolves recognized intents to skills. An intent name has
// the form "<skill>@<intent>"; the skill part is looked up in the registry
// and the intent is handed to the executor. Anything that stops an intent
// from reaching a skill is reported to the fallback dispatcher instead of
// being returned to the caller.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avi-assistant/avicore/fallback"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/observability"
	"github.com/avi-assistant/avicore/skills"
)

const sourceRunIntent = "router.RunIntent"

// Outcome describes what RunIntent did with an intent.
type Outcome struct {
	Routed   bool          // The executor accepted the intent.
	Skill    string        // Resolved skill id, empty if the name was unusable.
	IntentID string        // Part of the name after the separator.
	Fallback fallback.Kind // Set when Routed is false.
	Err      error         // Why the intent fell back.
}

// Option configures a Router.
type Option func(*Router)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(r *Router) { r.observer = o }
}

// Router routes intents. It holds no state of its own beyond its
// collaborators and is safe for concurrent use.
type Router struct {
	registry   *skills.Registry
	executor   skills.Executor
	dispatcher *fallback.Dispatcher
	logger     *slog.Logger
	observer   observability.Observer
}

// New creates a Router. A nil registry behaves as an empty one; a nil
// dispatcher drops fallbacks after logging them.
func New(reg *skills.Registry, exec skills.Executor, d *fallback.Dispatcher, opts ...Option) *Router {
	r := &Router{
		registry:   reg,
		executor:   exec,
		dispatcher: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = skills.NewRegistry()
	}
	if r.dispatcher == nil {
		r.dispatcher = fallback.NewDispatcher(fallback.WithLogger(r.logger))
	}
	return r
}

// Dispatcher returns the fallback dispatcher the router reports to.
func (r *Router) Dispatcher() *fallback.Dispatcher {
	return r.dispatcher
}

// RunIntent resolves in to a skill and runs it. It never returns an error:
// every failure becomes a fallback and is described in the Outcome.
func (r *Router) RunIntent(ctx context.Context, in intent.Intent) Outcome {
	name, ok := in.Name()
	if !ok {
		return r.fallback(ctx, Outcome{Fallback: fallback.NotUnderstood, Err: ErrNotRecognized}, in.Input)
	}

	skillID, intentID, err := intent.ParseName(name)
	if err != nil {
		return r.fallback(ctx, Outcome{
			Fallback: fallback.NotUnderstood,
			Err:      fmt.Errorf("%w: %q", err, name),
		}, in.Input)
	}
	out := Outcome{Skill: skillID, IntentID: intentID}

	s, ok := r.registry.Get(skillID)
	if !ok {
		out.Fallback = fallback.NotInstalled
		out.Err = fmt.Errorf("%w: %s", skills.ErrSkillNotFound, skillID)
		return r.fallback(ctx, out, in.Input)
	}

	switch s.Status {
	case skills.StatusDisabled:
		out.Fallback = fallback.NotEnabled
		out.Err = fmt.Errorf("%w: %s", ErrSkillDisabled, skillID)
		return r.fallback(ctx, out, skillID)
	case skills.StatusBad:
		out.Fallback = fallback.BadSkill
		out.Err = errors.Join(fmt.Errorf("%w: %s", ErrSkillBad, skillID), s.Err)
		return r.fallback(ctx, out, skillID)
	}

	if r.executor == nil {
		out.Fallback = fallback.ErrorOnCore
		out.Err = ErrNoExecutor
		return r.fallback(ctx, out, skillID)
	}

	if err := r.executor.RunIntent(ctx, skillID, in); err != nil {
		out.Fallback = fallback.ErrorOnSkill
		out.Err = err
		return r.fallback(ctx, out, skillID, err.Error())
	}

	out.Routed = true
	r.logger.Debug("intent routed", "skill", skillID, "intent", intentID)
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   EventRouted,
		Level:  observability.LevelInfo,
		Source: sourceRunIntent,
		Data: map[string]any{
			"skill":  skillID,
			"intent": intentID,
		},
	})
	return out
}

func (r *Router) fallback(ctx context.Context, out Outcome, message string, args ...string) Outcome {
	level := observability.LevelInfo
	if out.Fallback >= fallback.BadSkill {
		level = observability.LevelWarning
	}
	r.logger.Log(ctx, level.SlogLevel(), "intent fell back",
		"kind", out.Fallback.String(), "skill", out.Skill, "error", out.Err)

	observability.Emit(ctx, r.observer, observability.Event{
		Type:   EventFallback,
		Level:  level,
		Source: sourceRunIntent,
		Data: map[string]any{
			"kind":  out.Fallback.String(),
			"skill": out.Skill,
			"error": fmt.Sprint(out.Err),
		},
	})

	r.dispatcher.Handle(ctx, out.Fallback, message, args...)
	return out
}
