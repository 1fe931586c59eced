// Package speech defines the speak sink the conversation core talks through.
// The device layer that actually synthesizes audio lives outside this
// module; adapters here cover logging, plain writers and tests.
package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Speaker emits text to the user. rememberAsLast marks prompts that should
// be repeatable ("what did you say?"). Implementations must not block on
// playback for long; callers may run Speak on a goroutine.
type Speaker interface {
	Speak(ctx context.Context, text string, rememberAsLast bool) error
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string, rememberAsLast bool) error

func (f SpeakerFunc) Speak(ctx context.Context, text string, rememberAsLast bool) error {
	return f(ctx, text, rememberAsLast)
}

// Discard drops everything.
var Discard Speaker = SpeakerFunc(func(context.Context, string, bool) error { return nil })

type logSpeaker struct {
	logger *slog.Logger
}

// NewLogSpeaker returns a Speaker that writes each utterance as an info log
// line. Used when no device is attached.
func NewLogSpeaker(logger *slog.Logger) Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSpeaker{logger: logger}
}

func (s *logSpeaker) Speak(ctx context.Context, text string, remember bool) error {
	s.logger.InfoContext(ctx, "speak", "text", text, "remember", remember)
	return nil
}

type writerSpeaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewWriterSpeaker returns a Speaker that prints each utterance on its own
// line, prefixed, e.g. "avi> ". Writes are serialized.
func NewWriterSpeaker(w io.Writer, prefix string) Speaker {
	return &writerSpeaker{w: w, prefix: prefix}
}

func (s *writerSpeaker) Speak(_ context.Context, text string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, text)
	return err
}

// Utterance is one recorded Speak call.
type Utterance struct {
	Text     string
	Remember bool
}

// Recorder is a Speaker that keeps every utterance. Safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	utterances []Utterance
	err        error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Speak calls record the utterance and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Speak(_ context.Context, text string, remember bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = append(r.utterances, Utterance{Text: text, Remember: remember})
	return r.err
}

// Utterances returns a copy of everything spoken so far.
func (r *Recorder) Utterances() []Utterance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.utterances)
}

// Texts returns the spoken texts in arrival order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, len(r.utterances))
	for i, u := range r.utterances {
		texts[i] = u.Text
	}
	return texts
}

// Reset forgets recorded utterances.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = nil
}
