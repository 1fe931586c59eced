package fallback

import (
	"context"
	"log/slog"

	"github.com/avi-assistant/avicore/locale"
	"github.com/avi-assistant/avicore/speech"
)

// Phrase ids spoken by the default handlers.
const (
	TextNotUnderstood = "not_understood"
	TextNotInstalled  = "not_installed"
	TextNotEnabled    = "not_enabled"
	TextSkillError    = "skill_error"
)

// RegisterDefaults installs the stock handlers: spoken apologies for
// NotUnderstood, NotInstalled, NotEnabled and ErrorOnSkill, and a log line
// for ErrorOnNetwork. Existing registrations for those kinds are replaced.
func RegisterDefaults(d *Dispatcher, s speech.Speaker, c *locale.Catalog) {
	if s == nil {
		s = speech.Discard
	}
	if c == nil {
		c = locale.Default()
	}

	say := func(id, placeholder string) Handler {
		return HandlerFunc(func(ctx context.Context, message string, _ []string) {
			text := c.Format(id, map[string]string{placeholder: message})
			if err := s.Speak(ctx, text, false); err != nil {
				d.logger.Warn("fallback speak failed", "text", text, "error", err)
			}
		})
	}

	d.Register(NotUnderstood, say(TextNotUnderstood, "input"))
	d.Register(NotInstalled, say(TextNotInstalled, "input"))
	d.Register(NotEnabled, say(TextNotEnabled, "skill"))
	d.Register(ErrorOnSkill, say(TextSkillError, "skill"))
	d.Register(ErrorOnNetwork, HandlerFunc(func(ctx context.Context, message string, args []string) {
		d.logger.ErrorContext(ctx, "network error", "message", message, "args", args)
	}))
}

// LogHandler returns a handler that only logs at the given level.
func LogHandler(logger *slog.Logger, level slog.Level) Handler {
	return HandlerFunc(func(ctx context.Context, message string, args []string) {
		logger.Log(ctx, level, "fallback", "message", message, "args", args)
	})
}
