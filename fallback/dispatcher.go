// Package fallback maps failure categories to recovery handlers. The router
// reports every failure it cannot resolve through a Dispatcher; what a
// handler does (apologize, log, retry upstream) is up to whoever registered
// it.
package fallback

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Handler recovers from one failure category. message carries the context
// of the failure, usually the user's input or the skill id; args carry
// anything else the reporter attached.
type Handler interface {
	Run(ctx context.Context, message string, args []string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, message string, args []string)

func (f HandlerFunc) Run(ctx context.Context, message string, args []string) {
	f(ctx, message, args)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher holds at most one handler per Kind. Safe for concurrent use.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewDispatcher returns a dispatcher with no handlers.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:   slog.Default(),
		handlers: make(map[Kind]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs h for kind, replacing any previous handler. A nil
// handler removes the registration.
func (d *Dispatcher) Register(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.handlers, kind)
		return
	}
	d.handlers[kind] = h
}

// Registered reports whether kind has a handler.
func (d *Dispatcher) Registered(kind Kind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Kinds returns the kinds that have handlers, in declaration order.
func (d *Dispatcher) Kinds() []Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kinds := make([]Kind, 0, len(d.handlers))
	for k := range d.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Handle runs the handler for kind and reports whether one was registered.
// A missing handler is logged and otherwise ignored.
func (d *Dispatcher) Handle(ctx context.Context, kind Kind, message string, args ...string) bool {
	d.mu.RLock()
	h, ok := d.handlers[kind]
	d.mu.RUnlock()

	if !ok {
		d.logger.Warn("no fallback registered", "kind", kind.String(), "message", message)
		return false
	}

	d.logger.Debug("running fallback", "kind", kind.String(), "message", message)
	h.Run(ctx, message, args)
	return true
}
