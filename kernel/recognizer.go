package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avi-assistant/avicore/intent"
)

// Recognizer turns raw text into an intent. A recognizer that finds no
// match returns an intent without Intent info, not an error.
type Recognizer interface {
	Recognize(ctx context.Context, text string) (intent.Intent, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) (intent.Intent, error)

func (f RecognizerFunc) Recognize(ctx context.Context, text string) (intent.Intent, error) {
	return f(ctx, text)
}

// HTTPRecognizer posts {"input": text} to an NLU endpoint and decodes the
// intent JSON it answers with.
type HTTPRecognizer struct {
	url    string
	client *http.Client
}

// NewHTTPRecognizer creates a recognizer for url.
func NewHTTPRecognizer(url string, timeout time.Duration) *HTTPRecognizer {
	return &HTTPRecognizer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, text string) (intent.Intent, error) {
	body, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %v", ErrRecognize, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %v", ErrRecognize, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %v", ErrRecognize, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return intent.Intent{}, fmt.Errorf("%w: status %d: %s", ErrRecognize, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var in intent.Intent
	if err := json.NewDecoder(resp.Body).Decode(&in); err != nil {
		return intent.Intent{}, fmt.Errorf("%w: decode: %v", ErrRecognize, err)
	}
	if in.Input == "" {
		in.Input = text
	}
	return in, nil
}
