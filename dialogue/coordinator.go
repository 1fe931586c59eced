package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avi-assistant/avicore/locale"
	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/observability"
	"github.com/avi-assistant/avicore/speech"
)

// Phrase ids spoken by the coordinator.
const (
	TextAccepted      = "reply_accepted"
	TextTimeout       = "reply_timeout"
	TextTooManyTries  = "too_many_reply_tries"
	LastUtteranceKey  = "last_utterance"
	sourceProcessText = "dialogue.ProcessText"
)

// Request is what a skill submits when it asks the user a question.
type Request struct {
	Skill        string          // Skill that owns the question.
	SkillRequest string          // Prompt spoken to the user.
	Handler      string          // Skill handler invoked with the accepted answer.
	Validator    ErasedValidator // Checks candidate answers.
}

// PendingReply is the single outstanding question.
type PendingReply struct {
	ID           string
	Skill        string
	SkillRequest string
	Handler      string
	Validator    ErasedValidator
	CreatedAt    time.Time
	RetryCount   int
}

// Accepted describes an answer that passed validation.
type Accepted struct {
	ReplyID string
	Skill   string
	Handler string
	Output  string
}

// AcceptFunc receives accepted answers. It runs on the ProcessText caller's
// goroutine after the coordinator has returned to idle, so it may call
// SetReply to ask a follow-up question.
type AcceptFunc func(ctx context.Context, a Accepted)

// Option configures a ReplyCoordinator.
type Option func(*ReplyCoordinator)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *ReplyCoordinator) { c.logger = l }
}

// WithObserver sets the event observer.
func WithObserver(o observability.Observer) Option {
	return func(c *ReplyCoordinator) { c.observer = o }
}

// WithCatalog sets the phrase catalog used to resolve spoken ids.
func WithCatalog(cat *locale.Catalog) Option {
	return func(c *ReplyCoordinator) { c.catalog = cat }
}

// WithContextStore enables the last-utterance record.
func WithContextStore(s *memory.ContextStore) Option {
	return func(c *ReplyCoordinator) { c.store = s }
}

// WithAcceptHandler sets the callback for accepted answers.
func WithAcceptHandler(fn AcceptFunc) Option {
	return func(c *ReplyCoordinator) { c.onAccept = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ReplyCoordinator) { c.now = now }
}

// ReplyCoordinator holds at most one PendingReply. It is Idle when the slot
// is empty and AwaitingReply otherwise. SetReply, Cancel and ProcessText are
// serialized by one mutex; speech is asynchronous and never holds it.
type ReplyCoordinator struct {
	timeout    time.Duration
	maxRetries int
	capped     bool

	speaker  speech.Speaker
	catalog  *locale.Catalog
	store    *memory.ContextStore
	onAccept AcceptFunc
	logger   *slog.Logger
	observer observability.Observer
	now      func() time.Time

	mu      sync.Mutex
	pending *PendingReply

	speaking sync.WaitGroup
}

// NewReplyCoordinator creates an idle coordinator that speaks through s.
func NewReplyCoordinator(cfg *Config, s speech.Speaker, opts ...Option) *ReplyCoordinator {
	if s == nil {
		s = speech.Discard
	}
	c := &ReplyCoordinator{
		timeout:  cfg.Timeout(),
		speaker:  s,
		catalog:  locale.Default(),
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
		now:      time.Now,
	}
	c.maxRetries, c.capped = cfg.RetryLimit()

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetReply replaces any pending question with req and speaks the prompt.
// The previous requester is not notified.
func (c *ReplyCoordinator) SetReply(ctx context.Context, req Request) string {
	if req.Validator == nil {
		req.Validator = Erase[string](AnyValidator{})
	}

	p := &PendingReply{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Skill:        req.Skill,
		SkillRequest: req.SkillRequest,
		Handler:      req.Handler,
		Validator:    req.Validator,
		CreatedAt:    c.now(),
	}

	c.mu.Lock()
	replaced := c.pending
	c.pending = p
	c.mu.Unlock()

	if replaced != nil {
		c.logger.Info("pending reply replaced", "previous_skill", replaced.Skill, "previous_id", replaced.ID)
	}
	c.logger.Info("skill requested reply", "skill", p.Skill, "handler", p.Handler, "id", p.ID)

	c.emit(ctx, EventReplySet, observability.LevelInfo, "dialogue.SetReply", p, map[string]any{
		"replaced": replaced != nil,
	})

	if p.SkillRequest != "" {
		c.speak(ctx, p.SkillRequest, true)
	}
	return p.ID
}

// Cancel drops the pending question, if any.
func (c *ReplyCoordinator) Cancel(ctx context.Context) {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p == nil {
		return
	}
	c.logger.Info("pending reply cancelled", "skill", p.Skill, "id", p.ID)
	c.emit(ctx, EventReplyCancelled, observability.LevelInfo, "dialogue.Cancel", p, nil)
}

// HasPending reports whether a question is awaiting an answer.
func (c *ReplyCoordinator) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Pending returns a copy of the pending question.
func (c *ReplyCoordinator) Pending() (PendingReply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingReply{}, false
	}
	return *c.pending, true
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRejected
	outcomeExhausted
	outcomeTimeout
)

// ProcessText offers text as the answer to the pending question. It returns
// false when nothing is pending, in which case text is a fresh utterance.
// Otherwise the text is consumed: the question times out, is answered, or
// is rejected and either asked again or abandoned. With a cap of n, n
// rejected answers are re-asked and the next rejection abandons the
// question. Timeout is evaluated lazily here; nothing fires while idle.
func (c *ReplyCoordinator) ProcessText(ctx context.Context, text string) bool {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	if p == nil {
		c.mu.Unlock()
		c.logger.Debug("no pending reply for text")
		return false
	}

	var (
		result   outcome
		output   string
		rejected error
	)

	switch {
	case c.now().Sub(p.CreatedAt) > c.timeout:
		result = outcomeTimeout
	default:
		cleaned := p.Validator.ClearText(text)
		out, err := p.Validator.ValidateErased(cleaned)
		if err == nil {
			result, output = outcomeAccepted, out
			break
		}

		rejected = err
		p.RetryCount++
		if c.capped && p.RetryCount > c.maxRetries {
			result = outcomeExhausted
		} else {
			result = outcomeRejected
			c.pending = p
		}
	}
	c.mu.Unlock()

	switch result {
	case outcomeTimeout:
		c.logger.Info("pending reply timed out", "skill", p.Skill, "id", p.ID)
		c.emit(ctx, EventReplyTimeout, observability.LevelInfo, sourceProcessText, p, map[string]any{
			"age_secs": int64(c.now().Sub(p.CreatedAt) / time.Second),
		})
		c.speak(ctx, c.catalog.Resolve(TextTimeout), false)

	case outcomeExhausted:
		c.logger.Warn("too many invalid replies, cancelling request", "skill", p.Skill, "id", p.ID, "attempts", p.RetryCount)
		c.emit(ctx, EventReplyExhausted, observability.LevelWarning, sourceProcessText, p, nil)
		c.speak(ctx, c.catalog.Resolve(TextTooManyTries), false)

	case outcomeRejected:
		c.logger.Warn("reply rejected", "skill", p.Skill, "id", p.ID, "attempt", p.RetryCount, "error", rejected)
		c.emit(ctx, EventReplyRejected, observability.LevelInfo, sourceProcessText, p, map[string]any{
			"error": rejected.Error(),
		})
		c.speak(ctx, c.catalog.Format(p.Validator.ErrorText(rejected), map[string]string{
			"reason": reason(rejected),
		}), true)

	case outcomeAccepted:
		c.logger.Info("reply accepted", "skill", p.Skill, "handler", p.Handler, "output", output)
		c.emit(ctx, EventReplyAccepted, observability.LevelInfo, sourceProcessText, p, map[string]any{
			"output": output,
		})
		c.speak(ctx, c.catalog.Format(TextAccepted, map[string]string{"answer": output}), false)
		if c.onAccept != nil {
			c.onAccept(ctx, Accepted{ReplyID: p.ID, Skill: p.Skill, Handler: p.Handler, Output: output})
		}
	}

	return true
}

// LastUtterance returns the most recent prompt spoken with remember set.
func (c *ReplyCoordinator) LastUtterance(ctx context.Context) (string, bool) {
	if c.store == nil {
		return "", false
	}
	var text string
	if !c.store.GetInto(ctx, memory.Global(), LastUtteranceKey, &text) {
		return "", false
	}
	return text, true
}

// Wait blocks until every in-flight Speak call has returned.
func (c *ReplyCoordinator) Wait() {
	c.speaking.Wait()
}

// speak records remembered prompts synchronously, then hands the text to
// the speaker on its own goroutine.
func (c *ReplyCoordinator) speak(ctx context.Context, text string, remember bool) {
	if remember && c.store != nil {
		c.store.Set(ctx, memory.Global(), LastUtteranceKey, text, nil, false)
	}

	ctx = context.WithoutCancel(ctx)
	c.speaking.Add(1)
	go func() {
		defer c.speaking.Done()
		if err := c.speaker.Speak(ctx, text, remember); err != nil {
			c.logger.Warn("speak failed", "error", err)
		}
	}()
}

func (c *ReplyCoordinator) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, p *PendingReply, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 4)
	}
	data["id"] = p.ID
	data["skill"] = p.Skill
	data["handler"] = p.Handler
	data["retry_count"] = p.RetryCount
	observability.Emit(ctx, c.observer, observability.Event{
		Type:   t,
		Level:  level,
		Source: source,
		Data:   data,
	})
}

func reason(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return err.Error()
}
