package skills

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/speech"
)

// Executor runs skill logic. The router calls RunIntent for a routed
// intent; the kernel calls RunHandler when a pending reply is accepted.
type Executor interface {
	RunIntent(ctx context.Context, skillID string, in intent.Intent) error
	RunHandler(ctx context.Context, skillID, handler, output string) error
}

// IntentFunc handles an intent routed to an in-process skill.
type IntentFunc func(ctx context.Context, in intent.Intent) error

// HandlerFunc receives an accepted reply for an in-process skill.
type HandlerFunc func(ctx context.Context, handler, output string) error

type localSkill struct {
	onIntent IntentFunc
	onReply  HandlerFunc
}

// LocalExecutor runs skills implemented as Go functions.
type LocalExecutor struct {
	mu     sync.RWMutex
	skills map[string]localSkill
}

// NewLocalExecutor returns an executor with no skills.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{skills: make(map[string]localSkill)}
}

// Handle sets the intent function for skillID.
func (e *LocalExecutor) Handle(skillID string, fn IntentFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.skills[skillID]
	s.onIntent = fn
	e.skills[skillID] = s
}

// HandleReply sets the reply handler function for skillID.
func (e *LocalExecutor) HandleReply(skillID string, fn HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.skills[skillID]
	s.onReply = fn
	e.skills[skillID] = s
}

func (e *LocalExecutor) RunIntent(ctx context.Context, skillID string, in intent.Intent) error {
	e.mu.RLock()
	fn := e.skills[skillID].onIntent
	e.mu.RUnlock()

	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, skillID)
	}
	if err := fn(ctx, in); err != nil {
		return fmt.Errorf("skill %s intent failed: %w", skillID, err)
	}
	return nil
}

func (e *LocalExecutor) RunHandler(ctx context.Context, skillID, handler, output string) error {
	e.mu.RLock()
	fn := e.skills[skillID].onReply
	e.mu.RUnlock()

	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, skillID)
	}
	if err := fn(ctx, handler, output); err != nil {
		return fmt.Errorf("skill %s handler %s failed: %w", skillID, handler, err)
	}
	return nil
}

// ReplyDirective starts a stdout line that asks the user a question instead
// of speaking. The rest of the line is a JSON reply request.
const ReplyDirective = "@reply "

// ReplyRequestFunc receives the payload of a ReplyDirective printed by
// skillID.
type ReplyRequestFunc func(ctx context.Context, skillID string, payload json.RawMessage) error

// ProcessExecutor runs a skill's manifest entry as a child process.
//
//	<entry> intent            stdin: the intent as JSON
//	<entry> reply <handler>   stdin: the accepted output
//
// Every non-empty stdout line is spoken, except ReplyDirective lines, which
// go to the OnReplyRequest hook in order. A non-zero exit is an error.
type ProcessExecutor struct {
	registry *Registry
	speaker  speech.Speaker
	timeout  time.Duration
	logger   *slog.Logger
	onReply  ReplyRequestFunc
}

// NewProcessExecutor creates a ProcessExecutor. A zero timeout means 30
// seconds.
func NewProcessExecutor(r *Registry, s speech.Speaker, timeout time.Duration, logger *slog.Logger) *ProcessExecutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if s == nil {
		s = speech.Discard
	}
	return &ProcessExecutor{registry: r, speaker: s, timeout: timeout, logger: logger}
}

// OnReplyRequest sets the hook for ReplyDirective lines. Call it before the
// executor is used.
func (e *ProcessExecutor) OnReplyRequest(fn ReplyRequestFunc) {
	e.onReply = fn
}

func (e *ProcessExecutor) RunIntent(ctx context.Context, skillID string, in intent.Intent) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	return e.run(ctx, skillID, payload, "intent")
}

func (e *ProcessExecutor) RunHandler(ctx context.Context, skillID, handler, output string) error {
	return e.run(ctx, skillID, []byte(output), "reply", handler)
}

func (e *ProcessExecutor) run(ctx context.Context, skillID string, stdin []byte, args ...string) error {
	s, ok := e.registry.Get(skillID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, skillID)
	}
	if s.Manifest.Entry == "" {
		return fmt.Errorf("%w: %s", ErrNoEntry, skillID)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	entry := s.Manifest.Entry
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(s.Path, entry)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, entry, args...)
	cmd.Dir = s.Path
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(cmd.Environ(), "AVI_SKILL_ID="+skillID)

	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("skill process finished",
		"skill", skillID, "args", args, "duration", time.Since(start), "error", err)

	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if payload, ok := strings.CutPrefix(line, ReplyDirective); ok {
			e.requestReply(ctx, skillID, payload)
			continue
		}
		if serr := e.speaker.Speak(ctx, line, true); serr != nil {
			e.logger.Warn("skill speech failed", "skill", skillID, "error", serr)
		}
	}

	if err != nil {
		return fmt.Errorf("skill %s process failed: %w: %s", skillID, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *ProcessExecutor) requestReply(ctx context.Context, skillID, payload string) {
	if e.onReply == nil {
		e.logger.Warn("skill asked for a reply but nothing accepts requests", "skill", skillID)
		return
	}
	if err := e.onReply(ctx, skillID, json.RawMessage(payload)); err != nil {
		e.logger.Warn("skill reply request rejected", "skill", skillID, "error", err)
	}
}
