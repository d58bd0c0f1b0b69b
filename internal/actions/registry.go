// Package actions holds the MCP-style action registry: static entries pairing
// a parameter schema with a handler bound to the agent kit at dispatch time.
package actions

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/schema"
)

// Handler maps a parameter mapping onto one agent kit call. Handlers only
// translate enum strings and look up parameters.
type Handler func(ctx context.Context, k kit.InferenceProvider, params schema.Params) (any, error)

// Action is an immutable registry entry.
type Action struct {
	Name        string
	Description string
	Schema      schema.Fields
	Handler     Handler
}

// Option customises a Registry.
type Option func(*Registry)

// WithRecorder sends an invocation record to r after every Execute.
func WithRecorder(r invocation.Recorder) Option {
	return func(reg *Registry) {
		reg.recorder = r
	}
}

// Registry dispatches actions against one agent kit. It is built once and
// safe for concurrent use.
type Registry struct {
	kit      kit.InferenceProvider
	actions  map[string]Action
	names    []string
	recorder invocation.Recorder
}

// NewRegistry binds the given action sets to k. Later sets override earlier
// entries with the same name.
func NewRegistry(k kit.InferenceProvider, sets []map[string]Action, opts ...Option) *Registry {
	reg := &Registry{kit: k, actions: make(map[string]Action)}
	for _, set := range sets {
		for name, action := range set {
			reg.actions[name] = action
		}
	}
	for name := range reg.actions {
		reg.names = append(reg.names, name)
	}
	sort.Strings(reg.names)
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}
	return reg
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the named action.
func (r *Registry) Get(name string) (Action, bool) {
	action, ok := r.actions[name]
	return action, ok
}

// List returns every action in name order.
func (r *Registry) List() []Action {
	out := make([]Action, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.actions[name])
	}
	return out
}

// Execute validates params against the action schema and runs its handler.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (result any, err error) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, xerrors.Newf(xerrors.CodeUnknown, "panic: %v", rec)
		}
		invocation.Emit(ctx, r.recorder, invocation.New(invocation.KindAction, name, encodeParams(params), started, err))
	}()

	action, ok := r.actions[name]
	if !ok {
		return nil, xerrors.Newf(xerrors.CodeActionNotFound, "action %q not found", name)
	}
	if r.kit == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "agent kit is not configured")
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := action.Schema.Validate(params); err != nil {
		return nil, err
	}
	return action.Handler(ctx, r.kit, schema.Params(params))
}

func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(data)
}
