package cli

import (
	"fmt"

	xerrors "AgentKit-Chain/internal/errors"
)

// Process exit codes.
const (
	exitRuntime    = 1
	exitConfig     = 2
	exitValidation = 3
	exitNotFound   = 4
	exitToolError  = 5
)

// ExitError carries the process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// exitFor picks the exit code matching a coded error.
func exitFor(err error) *ExitError {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeDecodeFailed, xerrors.CodeValidationFailed, xerrors.CodeEnumLookup,
		xerrors.CodeMissingParameter, xerrors.CodeInvalidArgument:
		return exitError(exitValidation, "%s", err)
	case xerrors.CodeNotFound, xerrors.CodeToolNotFound, xerrors.CodeActionNotFound:
		return exitError(exitNotFound, "%s", err)
	default:
		return exitError(exitRuntime, "%s", err)
	}
}
