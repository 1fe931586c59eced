// Package intent holds the structured result of natural-language
// understanding as the router consumes it. Field names follow the NLU
// service's JSON.
package intent

import (
	"encoding/json"
	"errors"
	"strings"
)

// Separator splits an intent name into skill id and intent id.
const Separator = "@"

// ErrMalformedName is returned by ParseName when a name has no skill part.
var ErrMalformedName = errors.New("intent name must be <skill>@<intent>")

// Intent is one recognized utterance.
type Intent struct {
	Input  string `json:"input"`
	Intent *Info  `json:"intent"`
	Slots  []Slot `json:"slots"`
}

// Info identifies the recognized intent. IntentName is nil when the
// recognizer matched nothing.
type Info struct {
	IntentName  *string `json:"intentName"`
	Probability float64 `json:"probability"`
}

// Slot is an entity extracted from the input.
type Slot struct {
	RawValue string    `json:"rawValue"`
	Value    SlotValue `json:"value"`
	Entity   string    `json:"entity"`
	SlotName string    `json:"slotName"`
	Range    Range     `json:"range"`
}

// SlotValue is the resolved value of a slot. Kind names the value type
// ("Custom", "Number", ...); Value keeps the raw JSON.
type SlotValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// String renders string values unquoted and everything else as JSON.
func (v SlotValue) String() string {
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return string(v.Value)
}

// Range is the character span of a slot in Input, end exclusive.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New builds an intent for the named skill intent with no slots.
func New(input, name string, probability float64) Intent {
	return Intent{
		Input:  input,
		Intent: &Info{IntentName: &name, Probability: probability},
	}
}

// NotRecognized builds an intent with no match, as the NLU returns for
// input it could not classify.
func NotRecognized(input string) Intent {
	return Intent{Input: input}
}

// Name returns the intent name, if any.
func (i Intent) Name() (string, bool) {
	if i.Intent == nil || i.Intent.IntentName == nil {
		return "", false
	}
	return *i.Intent.IntentName, true
}

// Slot returns the first slot with the given name.
func (i Intent) Slot(name string) (Slot, bool) {
	for _, s := range i.Slots {
		if s.SlotName == name {
			return s, true
		}
	}
	return Slot{}, false
}

// ParseName splits "<skill>@<intent>" at the first separator. Anything
// after it, including further separators, is the intent id. Names without a
// separator or with an empty skill id are malformed.
func ParseName(name string) (skill, id string, err error) {
	skill, id, found := strings.Cut(name, Separator)
	if !found || skill == "" {
		return "", "", ErrMalformedName
	}
	return skill, id, nil
}
