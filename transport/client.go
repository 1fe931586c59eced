package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/intent"
)

// Client calls a remote assistant service.
type Client struct {
	processText   *connect.Client[wrapperspb.StringValue, structpb.Struct]
	runIntent     *connect.Client[structpb.Struct, structpb.Struct]
	getContext    *connect.Client[structpb.Struct, structpb.Value]
	setContext    *connect.Client[structpb.Struct, emptypb.Empty]
	removeContext *connect.Client[structpb.Struct, emptypb.Empty]
	sweepContext  *connect.Client[emptypb.Empty, emptypb.Empty]
	listSkills    *connect.Client[emptypb.Empty, structpb.Struct]
	setReply      *connect.Client[structpb.Struct, wrapperspb.StringValue]
	cancelReply   *connect.Client[emptypb.Empty, emptypb.Empty]
}

// NewClient creates a client for the service at baseURL, e.g.
// "http://127.0.0.1:7070". A nil httpClient uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		processText:   connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+ProcessTextProcedure, opts...),
		runIntent:     connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RunIntentProcedure, opts...),
		getContext:    connect.NewClient[structpb.Struct, structpb.Value](httpClient, baseURL+GetContextProcedure, opts...),
		setContext:    connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+SetContextProcedure, opts...),
		removeContext: connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+RemoveContextProcedure, opts...),
		sweepContext:  connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+SweepContextProcedure, opts...),
		listSkills:    connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ListSkillsProcedure, opts...),
		setReply:      connect.NewClient[structpb.Struct, wrapperspb.StringValue](httpClient, baseURL+SetReplyProcedure, opts...),
		cancelReply:   connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+CancelReplyProcedure, opts...),
	}
}

// ProcessText sends one line of user text through the utterance pipeline.
func (c *Client) ProcessText(ctx context.Context, text string) (Outcome, error) {
	res, err := c.processText.CallUnary(ctx, connect.NewRequest(wrapperspb.String(text)))
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	err = fromStruct(res.Msg, &out)
	return out, err
}

// RunIntent routes an already recognized intent.
func (c *Client) RunIntent(ctx context.Context, in intent.Intent) (Outcome, error) {
	msg, err := toStruct(in)
	if err != nil {
		return Outcome{}, err
	}
	res, err := c.runIntent.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	err = fromStruct(res.Msg, &out)
	return out, err
}

// GetContext returns the raw JSON of a context value. A missing value is a
// connect.CodeNotFound error.
func (c *Client) GetContext(ctx context.Context, scope, key string) (json.RawMessage, error) {
	msg, err := toStruct(ContextKey{Scope: scope, Key: key})
	if err != nil {
		return nil, err
	}
	res, err := c.getContext.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg.MarshalJSON()
}

// SetContext stores a context value. ttl uses the memory TTL syntax; empty
// never expires.
func (c *Client) SetContext(ctx context.Context, entry ContextEntry) error {
	msg, err := toStruct(entry)
	if err != nil {
		return err
	}
	_, err = c.setContext.CallUnary(ctx, connect.NewRequest(msg))
	return err
}

// RemoveContext deletes the persisted copy of a context value.
func (c *Client) RemoveContext(ctx context.Context, scope, key string) error {
	msg, err := toStruct(ContextKey{Scope: scope, Key: key})
	if err != nil {
		return err
	}
	_, err = c.removeContext.CallUnary(ctx, connect.NewRequest(msg))
	return err
}

// SweepContext drops expired context values.
func (c *Client) SweepContext(ctx context.Context) error {
	_, err := c.sweepContext.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	return err
}

// ListSkills returns the remote skill registry.
func (c *Client) ListSkills(ctx context.Context) ([]SkillInfo, error) {
	res, err := c.listSkills.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	var list SkillList
	if err := fromStruct(res.Msg, &list); err != nil {
		return nil, err
	}
	return list.Skills, nil
}

// SetReply asks the user a question on behalf of a skill and returns the
// pending reply id. The next ProcessText call is offered to it first.
func (c *Client) SetReply(ctx context.Context, rc dialogue.ReplyConfig) (string, error) {
	msg, err := toStruct(rc)
	if err != nil {
		return "", err
	}
	res, err := c.setReply.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return "", err
	}
	return res.Msg.GetValue(), nil
}

// CancelReply drops the pending question, if any.
func (c *Client) CancelReply(ctx context.Context) error {
	_, err := c.cancelReply.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	return err
}
