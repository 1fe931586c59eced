// Package transport exposes the conversation engine over Connect. Messages
// are protobuf well-known types, so the service needs no generated code:
// text goes in as StringValue, structured payloads as Struct.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/kernel"
	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/router"
	"github.com/avi-assistant/avicore/skills"
)

// ServiceName is the fully-qualified name of the assistant service.
const ServiceName = "avicore.v1.AssistantService"

// Procedure paths.
const (
	ProcessTextProcedure   = "/" + ServiceName + "/ProcessText"
	RunIntentProcedure     = "/" + ServiceName + "/RunIntent"
	GetContextProcedure    = "/" + ServiceName + "/GetContext"
	SetContextProcedure    = "/" + ServiceName + "/SetContext"
	RemoveContextProcedure = "/" + ServiceName + "/RemoveContext"
	SweepContextProcedure  = "/" + ServiceName + "/SweepContext"
	ListSkillsProcedure    = "/" + ServiceName + "/ListSkills"
	SetReplyProcedure      = "/" + ServiceName + "/SetReply"
	CancelReplyProcedure   = "/" + ServiceName + "/CancelReply"
)

// Engine is the part of the kernel the service calls.
type Engine interface {
	HandleUtterance(ctx context.Context, text string) (kernel.Result, error)
	RunIntent(ctx context.Context, in intent.Intent) router.Outcome
	SetReply(ctx context.Context, rc dialogue.ReplyConfig) (string, error)
	CancelReply(ctx context.Context)
	Store() *memory.ContextStore
	Registry() *skills.Registry
}

// Outcome is the wire form of a processed utterance or intent.
type Outcome struct {
	Consumed bool   `json:"consumed,omitempty"`
	Routed   bool   `json:"routed"`
	Skill    string `json:"skill,omitempty"`
	IntentID string `json:"intent_id,omitempty"`
	Fallback string `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OutcomeOf converts a routing outcome to its wire form.
func OutcomeOf(out router.Outcome) Outcome {
	o := Outcome{Routed: out.Routed, Skill: out.Skill, IntentID: out.IntentID}
	if !out.Routed {
		o.Fallback = out.Fallback.String()
	}
	if out.Err != nil {
		o.Error = out.Err.Error()
	}
	return o
}

// ResultOutcome converts an utterance result to its wire form.
func ResultOutcome(res kernel.Result) Outcome {
	if res.Consumed {
		return Outcome{Consumed: true}
	}
	return OutcomeOf(res.Outcome)
}

// ContextKey addresses one context value.
type ContextKey struct {
	Scope string `json:"scope"` // "global" or "skill_<name>".
	Key   string `json:"key"`
}

func (k ContextKey) resolve() (memory.Scope, error) {
	if k.Key == "" {
		return memory.Scope{}, fmt.Errorf("%w: empty key", memory.ErrInvalidKey)
	}
	scope, ok := memory.ParseScope(k.Scope)
	if !ok {
		return memory.Scope{}, fmt.Errorf("%w: scope %q", memory.ErrInvalidKey, k.Scope)
	}
	return scope, nil
}

// ContextEntry is a SetContext request.
type ContextEntry struct {
	ContextKey
	Value      any    `json:"value"`
	TTL        string `json:"ttl,omitempty"` // e.g. "10m"; empty never expires.
	Persistent bool   `json:"persistent,omitempty"`
}

// SkillInfo describes a registered skill.
type SkillInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SkillList is the ListSkills response.
type SkillList struct {
	Skills []SkillInfo `json:"skills"`
}

// toStruct converts a JSON-tagged value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes a Struct into a JSON-tagged value.
func fromStruct(s *structpb.Struct, dst any) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
