package kernel

import (
	"context"
	"fmt"

	"github.com/avi-assistant/avicore/fallback"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/router"
	"github.com/avi-assistant/avicore/skills"
)

// Built-in intents answered by the kernel rather than a skill. Both act on
// the last intent a skill accepted and are gated by that skill's manifest.
const (
	IntentRepeat  = "avi@repeat"
	IntentGoAgain = "avi@go_again"
)

// repeatLast speaks the last remembered prompt again.
func (k *Kernel) repeatLast(ctx context.Context, in intent.Intent) router.Outcome {
	_, skillID, err := k.lastFor(func(m skills.Manifest) bool { return m.CanRepeatLastResponse })
	if err != nil {
		return k.builtinFallback(ctx, in, "repeat", err)
	}

	text, ok := k.replies.LastUtterance(ctx)
	if !ok {
		return k.builtinFallback(ctx, in, "repeat", ErrNothingToRepeat)
	}
	if err := k.speaker.Speak(ctx, text, false); err != nil {
		k.logger.Warn("repeat failed", "skill", skillID, "error", err)
	}
	return router.Outcome{Routed: true, Skill: skillID, IntentID: "repeat"}
}

// goAgain routes the last accepted intent once more.
func (k *Kernel) goAgain(ctx context.Context, in intent.Intent) router.Outcome {
	last, _, err := k.lastFor(func(m skills.Manifest) bool { return m.CanGoAgain })
	if err != nil {
		return k.builtinFallback(ctx, in, "go_again", err)
	}
	return k.router.RunIntent(ctx, last)
}

// lastFor returns the last accepted intent and its skill if the skill's
// manifest passes allowed.
func (k *Kernel) lastFor(allowed func(skills.Manifest) bool) (intent.Intent, string, error) {
	k.mu.Lock()
	last, skillID := k.last, k.lastSkill
	k.mu.Unlock()
	if last == nil {
		return intent.Intent{}, "", ErrNothingToRepeat
	}

	s, ok := k.registry.Get(skillID)
	if !ok {
		return intent.Intent{}, "", fmt.Errorf("%w: %s", skills.ErrSkillNotFound, skillID)
	}
	if !allowed(s.Manifest) {
		return intent.Intent{}, "", fmt.Errorf("%w: %s", ErrRepeatNotAllowed, skillID)
	}
	return *last, skillID, nil
}

func (k *Kernel) builtinFallback(ctx context.Context, in intent.Intent, id string, err error) router.Outcome {
	k.logger.Info("built-in intent fell back", "intent", id, "error", err)
	k.dispatcher.Handle(ctx, fallback.NotUnderstood, in.Input)
	return router.Outcome{IntentID: id, Fallback: fallback.NotUnderstood, Err: err}
}
