package kernel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/skills"
)

// SetReply asks the user a question on behalf of an installed skill and
// returns the pending reply id.
func (k *Kernel) SetReply(ctx context.Context, rc dialogue.ReplyConfig) (string, error) {
	if _, ok := k.registry.Get(rc.Skill); !ok {
		return "", fmt.Errorf("%w: %q", skills.ErrSkillNotFound, rc.Skill)
	}
	req, err := rc.Request(k.catalog)
	if err != nil {
		return "", err
	}
	return k.replies.SetReply(ctx, req), nil
}

// CancelReply drops the pending question, if any.
func (k *Kernel) CancelReply(ctx context.Context) {
	k.replies.Cancel(ctx)
}

// requestReply handles a reply directive printed by a skill process. The
// question is always owned by the skill that printed it.
func (k *Kernel) requestReply(ctx context.Context, skillID string, payload json.RawMessage) error {
	var rc dialogue.ReplyConfig
	if err := json.Unmarshal(payload, &rc); err != nil {
		return fmt.Errorf("decode reply request: %w", err)
	}
	rc.Skill = skillID
	_, err := k.SetReply(ctx, rc)
	return err
}
