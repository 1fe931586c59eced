package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/intent"
	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/skills"
)

type service struct {
	engine Engine
}

// NewHandler builds the Connect handler for e. It returns the path prefix
// to mount it on and the handler, like generated Connect code.
func NewHandler(e Engine, logger *slog.Logger, opts ...connect.HandlerOption) (string, http.Handler) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{engine: e}
	opts = append([]connect.HandlerOption{connect.WithInterceptors(logInterceptor(logger))}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ProcessTextProcedure, connect.NewUnaryHandler(ProcessTextProcedure, s.processText, opts...))
	mux.Handle(RunIntentProcedure, connect.NewUnaryHandler(RunIntentProcedure, s.runIntent, opts...))
	mux.Handle(GetContextProcedure, connect.NewUnaryHandler(GetContextProcedure, s.getContext, opts...))
	mux.Handle(SetContextProcedure, connect.NewUnaryHandler(SetContextProcedure, s.setContext, opts...))
	mux.Handle(RemoveContextProcedure, connect.NewUnaryHandler(RemoveContextProcedure, s.removeContext, opts...))
	mux.Handle(SweepContextProcedure, connect.NewUnaryHandler(SweepContextProcedure, s.sweepContext, opts...))
	mux.Handle(ListSkillsProcedure, connect.NewUnaryHandler(ListSkillsProcedure, s.listSkills, opts...))
	mux.Handle(SetReplyProcedure, connect.NewUnaryHandler(SetReplyProcedure, s.setReply, opts...))
	mux.Handle(CancelReplyProcedure, connect.NewUnaryHandler(CancelReplyProcedure, s.cancelReply, opts...))

	return "/" + ServiceName + "/", mux
}

func (s *service) processText(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	text := strings.TrimSpace(req.Msg.GetValue())
	if text == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("empty text"))
	}

	res, err := s.engine.HandleUtterance(ctx, text)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	return structResponse(ResultOutcome(res))
}

func (s *service) runIntent(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in intent.Intent
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode intent: %w", err))
	}
	return structResponse(OutcomeOf(s.engine.RunIntent(ctx, in)))
}

func (s *service) getContext(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Value], error) {
	var key ContextKey
	scope, err := decodeKey(req.Msg, &key)
	if err != nil {
		return nil, err
	}

	raw, ok := s.engine.Store().Get(ctx, scope, key.Key)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s/%s", memory.ErrKeyNotFound, key.Scope, key.Key))
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	value, err := structpb.NewValue(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(value), nil
}

func (s *service) setContext(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	var entry ContextEntry
	scope, err := decodeKey(req.Msg, &entry)
	if err != nil {
		return nil, err
	}

	var ttl *time.Duration
	if entry.TTL != "" {
		d, err := memory.ParseTTL(entry.TTL)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		ttl = &d
	}

	s.engine.Store().Set(ctx, scope, entry.Key, entry.Value, ttl, entry.Persistent)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *service) removeContext(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	var key ContextKey
	scope, err := decodeKey(req.Msg, &key)
	if err != nil {
		return nil, err
	}
	s.engine.Store().Remove(ctx, scope, key.Key)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *service) sweepContext(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	s.engine.Store().CleanupExpired(ctx)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *service) listSkills(_ context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	list := SkillList{Skills: []SkillInfo{}}
	for _, sk := range s.engine.Registry().List() {
		info := SkillInfo{
			ID:          sk.ID,
			Name:        sk.Manifest.Name,
			Status:      sk.Status.String(),
			Description: sk.Manifest.Description,
		}
		if sk.Err != nil {
			info.Error = sk.Err.Error()
		}
		list.Skills = append(list.Skills, info)
	}
	return structResponse(list)
}

func (s *service) setReply(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[wrapperspb.StringValue], error) {
	var rc dialogue.ReplyConfig
	if err := fromStruct(req.Msg, &rc); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode reply request: %w", err))
	}
	if rc.Skill == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("empty skill"))
	}

	id, err := s.engine.SetReply(ctx, rc)
	switch {
	case errors.Is(err, skills.ErrSkillNotFound):
		return nil, connect.NewError(connect.CodeNotFound, err)
	case err != nil:
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(wrapperspb.String(id)), nil
}

func (s *service) cancelReply(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	s.engine.CancelReply(ctx)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// decodeKey decodes msg into dst, whose ContextKey must name a valid scope
// and key.
func decodeKey[T interface{ resolve() (memory.Scope, error) }](msg *structpb.Struct, dst T) (memory.Scope, error) {
	if err := fromStruct(msg, dst); err != nil {
		return memory.Scope{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	scope, err := dst.resolve()
	if err != nil {
		return memory.Scope{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return scope, nil
}

func structResponse(v any) (*connect.Response[structpb.Struct], error) {
	msg, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func logInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			logger.Debug("rpc",
				"procedure", req.Spec().Procedure,
				"duration", time.Since(start),
				"code", codeOf(err),
			)
			return res, err
		}
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}
