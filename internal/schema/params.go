package schema

import (
	xerrors "AgentKit-Chain/internal/errors"
)

// Params is a decoded parameter mapping with typed accessors. Accessors fail
// with MISSING_PARAMETER when a key is absent and INVALID_ARGUMENT when the
// value has the wrong type.
type Params map[string]any

// String returns the string value stored under name.
func (p Params) String(name string) (string, error) {
	value, ok := p[name]
	if !ok || value == nil {
		return "", xerrors.Newf(xerrors.CodeMissingParameter, "missing parameter: %s", name)
	}
	s, ok := value.(string)
	if !ok {
		return "", xerrors.Newf(xerrors.CodeInvalidArgument, "parameter %s must be a string", name)
	}
	return s, nil
}

// StringOr returns the string stored under name, or fallback when absent.
func (p Params) StringOr(name, fallback string) (string, error) {
	if value, ok := p[name]; !ok || value == nil {
		return fallback, nil
	}
	return p.String(name)
}

// Float returns the numeric value stored under name.
func (p Params) Float(name string) (float64, error) {
	value, ok := p[name]
	if !ok || value == nil {
		return 0, xerrors.Newf(xerrors.CodeMissingParameter, "missing parameter: %s", name)
	}
	n, ok := asFloat(value)
	if !ok {
		return 0, xerrors.Newf(xerrors.CodeInvalidArgument, "parameter %s must be a number", name)
	}
	return n, nil
}

// Int returns the integral value stored under name.
func (p Params) Int(name string) (int, error) {
	value, ok := p[name]
	if !ok || value == nil {
		return 0, xerrors.Newf(xerrors.CodeMissingParameter, "missing parameter: %s", name)
	}
	if !matches(Integer, value) {
		return 0, xerrors.Newf(xerrors.CodeInvalidArgument, "parameter %s must be an integer", name)
	}
	n, _ := asFloat(value)
	return int(n), nil
}
