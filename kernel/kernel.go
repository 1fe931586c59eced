// Package kernel composes the conversation engine: the context store, the
// reply coordinator, the skill registry, the intent router and the fallback
// dispatcher, wired together behind an utterance pipeline.
//
// The kernel initializes from configuration via New, creating every
// subsystem the options did not supply.
//
//	k, err := kernel.New(&cfg)
//	res, err := k.HandleUtterance(ctx, "what's the weather in Lisbon")
package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/fallback"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/locale"
	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/observability"
	"github.com/avi-assistant/avicore/router"
	"github.com/avi-assistant/avicore/session"
	"github.com/avi-assistant/avicore/skills"
	"github.com/avi-assistant/avicore/speech"
)

// Result describes what HandleUtterance did with a line of user text.
type Result struct {
	Consumed bool           // The pending question took the text as its answer.
	Intent   *intent.Intent // Recognized intent, nil when consumed or on error.
	Outcome  router.Outcome // Routing outcome when Intent is set.
}

// Option configures a Kernel. Options run before config-driven
// initialization; anything an option supplies is not created from config.
type Option func(*Kernel)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.logger = l }
}

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithSpeaker sets the speak sink. The default logs each utterance.
func WithSpeaker(s speech.Speaker) Option {
	return func(k *Kernel) { k.speaker = s }
}

// WithRecognizer overrides the config-created NLU client.
func WithRecognizer(r Recognizer) Option {
	return func(k *Kernel) { k.recognizer = r }
}

// WithExecutor overrides the process-based skill executor.
func WithExecutor(e skills.Executor) Option {
	return func(k *Kernel) { k.executor = e }
}

// WithRegistry overrides the skills loaded from the skills directory.
func WithRegistry(r *skills.Registry) Option {
	return func(k *Kernel) { k.registry = r }
}

// WithContextStore overrides the config-created context store.
func WithContextStore(s *memory.ContextStore) Option {
	return func(k *Kernel) { k.store = s }
}

// WithSession overrides the config-created session.
func WithSession(s session.Session) Option {
	return func(k *Kernel) { k.session = s }
}

// WithCatalog overrides the config-created phrase catalog.
func WithCatalog(c *locale.Catalog) Option {
	return func(k *Kernel) { k.catalog = c }
}

// WithReplyClock sets the reply coordinator's clock.
func WithReplyClock(now func() time.Time) Option {
	return func(k *Kernel) { k.replyClock = now }
}

// Kernel is the conversation engine of one assistant node.
type Kernel struct {
	logger     *slog.Logger
	observer   observability.Observer
	speaker    speech.Speaker
	recognizer Recognizer
	executor   skills.Executor
	registry   *skills.Registry
	store      *memory.ContextStore
	session    session.Session
	catalog    *locale.Catalog
	replyClock func() time.Time

	replies    *dialogue.ReplyCoordinator
	dispatcher *fallback.Dispatcher
	router     *router.Router

	sweepInterval time.Duration

	mu        sync.Mutex
	last      *intent.Intent // Last intent a skill accepted.
	lastSkill string
}

// New creates a Kernel from configuration.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		logger:        slog.Default(),
		sweepInterval: cfg.Memory.Interval(),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.observer == nil {
		obs, err := resolveObserver(cfg.Observer, k.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		k.observer = obs
	}

	if k.catalog == nil {
		cat, err := locale.NewCatalog(&cfg.Locale, k.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load phrases: %w", err)
		}
		k.catalog = cat
	}

	if k.session == nil {
		sesh, err := session.New(&cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		k.session = sesh
	}

	if k.speaker == nil {
		k.speaker = speech.NewLogSpeaker(k.logger)
	}
	k.speaker = transcriptSpeaker{next: k.speaker, session: k.session}

	if k.store == nil {
		p, err := memory.NewPersister(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create context persister: %w", err)
		}
		k.store = memory.NewContextStore(p,
			memory.WithLogger(k.logger),
			memory.WithObserver(k.observer),
		)
	}

	if k.registry == nil {
		reg, err := skills.Load(context.Background(), cfg.Skills.Path,
			skills.WithLoadLogger(k.logger),
			skills.WithLocale(k.catalog.Code()),
			skills.WithConcurrency(cfg.Skills.Concurrency),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load skills: %w", err)
		}
		k.registry = reg
	}

	if k.executor == nil {
		k.executor = skills.NewProcessExecutor(k.registry, k.speaker, cfg.Skills.ProcessTimeout(), k.logger)
	}

	if k.recognizer == nil && cfg.NLU.URL != "" {
		k.recognizer = NewHTTPRecognizer(cfg.NLU.URL, cfg.NLU.RequestTimeout())
	}

	k.dispatcher = fallback.NewDispatcher(fallback.WithLogger(k.logger))
	fallback.RegisterDefaults(k.dispatcher, k.speaker, k.catalog)

	k.router = router.New(k.registry, k.executor, k.dispatcher,
		router.WithLogger(k.logger),
		router.WithObserver(k.observer),
	)

	replyOpts := []dialogue.Option{
		dialogue.WithLogger(k.logger),
		dialogue.WithObserver(k.observer),
		dialogue.WithCatalog(k.catalog),
		dialogue.WithContextStore(k.store),
		dialogue.WithAcceptHandler(k.runReplyHandler),
	}
	if k.replyClock != nil {
		replyOpts = append(replyOpts, dialogue.WithClock(k.replyClock))
	}
	k.replies = dialogue.NewReplyCoordinator(&cfg.Reply, k.speaker, replyOpts...)

	if pe, ok := k.executor.(*skills.ProcessExecutor); ok {
		pe.OnReplyRequest(k.requestReply)
	}

	return k, nil
}

// Store returns the context store.
func (k *Kernel) Store() *memory.ContextStore { return k.store }

// Replies returns the reply coordinator skills ask questions through.
func (k *Kernel) Replies() *dialogue.ReplyCoordinator { return k.replies }

// Registry returns the skill registry.
func (k *Kernel) Registry() *skills.Registry { return k.registry }

// Dispatcher returns the fallback dispatcher, for registering handlers.
func (k *Kernel) Dispatcher() *fallback.Dispatcher { return k.dispatcher }

// Session returns the conversation transcript.
func (k *Kernel) Session() session.Session { return k.session }

// Catalog returns the active phrase catalog.
func (k *Kernel) Catalog() *locale.Catalog { return k.catalog }

// Speaker returns the speak sink, which also records assistant turns.
func (k *Kernel) Speaker() speech.Speaker { return k.speaker }

// HandleUtterance processes one line of user text. A pending question gets
// the first chance at it; otherwise the text is recognized and routed.
// Without a recognizer the text falls back as not understood. The only
// error is a recognizer failure, which is also reported as a network
// fallback.
func (k *Kernel) HandleUtterance(ctx context.Context, text string) (Result, error) {
	k.session.Add(session.NewTurn(session.RoleUser, text))

	consumed := k.replies.ProcessText(ctx, text)
	k.emit(ctx, EventUtterance, observability.LevelVerbose, "kernel.HandleUtterance", map[string]any{
		"length":   len(text),
		"consumed": consumed,
	})
	if consumed {
		return Result{Consumed: true}, nil
	}

	in := intent.NotRecognized(text)
	if k.recognizer != nil {
		var err error
		in, err = k.recognizer.Recognize(ctx, text)
		if err != nil {
			k.emit(ctx, EventError, observability.LevelError, "kernel.HandleUtterance", map[string]any{
				"error": err.Error(),
			})
			k.dispatcher.Handle(ctx, fallback.ErrorOnNetwork, text, err.Error())
			return Result{}, err
		}
	}

	out := k.RunIntent(ctx, in)
	return Result{Intent: &in, Outcome: out}, nil
}

// RunIntent routes an already recognized intent.
func (k *Kernel) RunIntent(ctx context.Context, in intent.Intent) router.Outcome {
	name, _ := in.Name()
	k.emit(ctx, EventIntent, observability.LevelInfo, "kernel.RunIntent", map[string]any{
		"intent": name,
	})
	switch name {
	case IntentRepeat:
		return k.repeatLast(ctx, in)
	case IntentGoAgain:
		return k.goAgain(ctx, in)
	}

	out := k.router.RunIntent(ctx, in)
	if out.Routed {
		k.mu.Lock()
		k.last, k.lastSkill = &in, out.Skill
		k.mu.Unlock()
	}
	return out
}

// Run supervises the periodic context sweep and any extra services, such
// as the Connect server, until ctx is done or a service fails.
func (k *Kernel) Run(ctx context.Context, services ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return k.store.Sweep(gctx, k.sweepInterval)
	})
	for _, svc := range services {
		g.Go(func() error {
			return svc(gctx)
		})
	}

	k.logger.Info("kernel running", "skills", k.registry.Len(), "sweep_interval", k.sweepInterval)
	return g.Wait()
}

// Close waits for in-flight speech and closes the context store.
func (k *Kernel) Close() error {
	k.replies.Wait()
	return k.store.Close()
}

func (k *Kernel) runReplyHandler(ctx context.Context, a dialogue.Accepted) {
	if a.Handler == "" {
		return
	}
	if err := k.executor.RunHandler(ctx, a.Skill, a.Handler, a.Output); err != nil {
		k.logger.Warn("reply handler failed", "skill", a.Skill, "handler", a.Handler, "error", err)
		k.dispatcher.Handle(ctx, fallback.ErrorOnSkill, a.Skill, err.Error())
	}
}

// resolveObserver turns a comma-separated list of registered observer names
// into one observer. "slog" logs through logger rather than slog.Default.
func resolveObserver(names string, logger *slog.Logger) (observability.Observer, error) {
	var observers []observability.Observer
	for name := range strings.SplitSeq(names, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case defaultObserver:
			observers = append(observers, observability.NewSlogObserver(logger))
		default:
			obs, err := observability.GetObserver(name)
			if err != nil {
				return nil, err
			}
			observers = append(observers, obs)
		}
	}

	switch len(observers) {
	case 0:
		return observability.NoOpObserver{}, nil
	case 1:
		return observers[0], nil
	default:
		return observability.NewMultiObserver(observers...), nil
	}
}

func (k *Kernel) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, data map[string]any) {
	observability.Emit(ctx, k.observer, observability.Event{
		Type:   t,
		Level:  level,
		Source: source,
		Data:   data,
	})
}

// transcriptSpeaker records what the assistant says before speaking it.
type transcriptSpeaker struct {
	next    speech.Speaker
	session session.Session
}

func (s transcriptSpeaker) Speak(ctx context.Context, text string, remember bool) error {
	s.session.Add(session.NewTurn(session.RoleAssistant, text))
	return s.next.Speak(ctx, text, remember)
}
