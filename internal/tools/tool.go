// Package tools exposes agent-kit operations as langchaingo tools. Every tool
// turns its input into exactly one envelope and never reports a Go error.
package tools

import (
	"context"
	"time"

	ltools "github.com/tmc/langchaingo/tools"

	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
	"AgentKit-Chain/internal/schema"
)

// Tool is a langchaingo tool with a typed entry point and declared fields.
type Tool interface {
	ltools.Tool
	Fields() schema.Fields
	Run(ctx context.Context, input string) Envelope
}

// Option customises tool construction.
type Option func(*base)

// WithRecorder sends an invocation record to r after every call.
func WithRecorder(r invocation.Recorder) Option {
	return func(b *base) {
		b.recorder = r
	}
}

type base struct {
	name        string
	description string
	fields      schema.Fields
	recorder    invocation.Recorder
}

func newBase(name, description string, fields schema.Fields, opts []Option) base {
	b := base{name: name, description: description, fields: fields}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

func (b *base) Name() string          { return b.name }
func (b *base) Description() string   { return b.description }
func (b *base) Fields() schema.Fields { return b.fields }

// decode parses and validates the input against the declared fields.
func (b *base) decode(input string) (schema.Params, error) {
	params, err := schema.Decode(input)
	if err != nil {
		return nil, err
	}
	if err := b.fields.Validate(params); err != nil {
		return nil, err
	}
	return schema.Params(params), nil
}

func (b *base) finish(ctx context.Context, input string, started time.Time, err error) {
	invocation.Emit(ctx, b.recorder, invocation.New(invocation.KindTool, b.name, input, started, err))
}

// guard runs fn and turns a panic into a coded error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Newf(xerrors.CodeUnknown, "panic: %v", r)
		}
	}()
	return fn()
}

func notConfigured() error {
	return xerrors.New(xerrors.CodeInitializationFailure, "agent kit is not configured")
}

// Lookup returns the tool with the given name.
func Lookup(list []Tool, name string) (Tool, error) {
	for _, t := range list {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, xerrors.Newf(xerrors.CodeToolNotFound, "tool %q not found", name)
}

// AsLangchain converts the list for registration with a langchaingo agent.
func AsLangchain(list []Tool) []ltools.Tool {
	out := make([]ltools.Tool, 0, len(list))
	for _, t := range list {
		out = append(out, t)
	}
	return out
}
