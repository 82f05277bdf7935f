package runtime

import (
	"errors"
	"fmt"
)

// ScriptErrorCode identifies a fault in the script itself, as opposed to a
// step that ran and failed.
type ScriptErrorCode string

const (
	ErrorCodeNoEntryTarget     ScriptErrorCode = "NO_ENTRY_TARGET"
	ErrorCodeTargetNotFound    ScriptErrorCode = "TARGET_NOT_FOUND"
	ErrorCodeUnknownAction     ScriptErrorCode = "UNKNOWN_ACTION"
	ErrorCodeInvalidAction     ScriptErrorCode = "INVALID_ACTION"
	ErrorCodeFormNotFound      ScriptErrorCode = "FORM_NOT_FOUND"
	ErrorCodeNoCurrentPage     ScriptErrorCode = "NO_CURRENT_PAGE"
	ErrorCodeLookupFailed      ScriptErrorCode = "LOOKUP_FAILED"
	ErrorCodeJumpDepthExceeded ScriptErrorCode = "JUMP_DEPTH_EXCEEDED"
	ErrorCodeDuplicateTarget   ScriptErrorCode = "DUPLICATE_TARGET"
)

var (
	ErrNoEntryTarget     = errors.New("no entry target")
	ErrTargetNotFound    = errors.New("target not found")
	ErrUnknownAction     = errors.New("unknown action kind")
	ErrInvalidAction     = errors.New("invalid action")
	ErrFormNotFound      = errors.New("form not found")
	ErrNoCurrentPage     = errors.New("no current page")
	ErrLookupFailed      = errors.New("form value lookup failed")
	ErrJumpDepthExceeded = errors.New("jump depth exceeded")
	ErrDuplicateTarget   = errors.New("duplicate target")

	ErrSelectNotFound = errors.New("select element not found")
	ErrOptionNotFound = errors.New("option not found")
)

var sentinels = map[ScriptErrorCode]error{
	ErrorCodeNoEntryTarget:     ErrNoEntryTarget,
	ErrorCodeTargetNotFound:    ErrTargetNotFound,
	ErrorCodeUnknownAction:     ErrUnknownAction,
	ErrorCodeInvalidAction:     ErrInvalidAction,
	ErrorCodeFormNotFound:      ErrFormNotFound,
	ErrorCodeNoCurrentPage:     ErrNoCurrentPage,
	ErrorCodeLookupFailed:      ErrLookupFailed,
	ErrorCodeJumpDepthExceeded: ErrJumpDepthExceeded,
	ErrorCodeDuplicateTarget:   ErrDuplicateTarget,
}

// ScriptError aborts a run. It is never turned into a Result.
type ScriptError struct {
	Code    ScriptErrorCode `json:"code"`
	Message string          `json:"message"`
	Target  string          `json:"target,omitempty"`
	Cause   error           `json:"-"`
}

func newScriptError(code ScriptErrorCode, target, format string, args ...any) *ScriptError {
	return &ScriptError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Target:  target,
	}
}

func (e *ScriptError) withCause(err error) *ScriptError {
	e.Cause = err
	return e
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Target != "" {
		msg += fmt.Sprintf(" (target: %s)", e.Target)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel registered for the error's code.
func (e *ScriptError) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && sentinel == target
}

// AsScriptError reports whether err carries a *ScriptError.
func AsScriptError(err error) (*ScriptError, bool) {
	var se *ScriptError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
