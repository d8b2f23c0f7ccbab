package engine

import (
	"errors"
	"fmt"
)

// ErrNothingToDo marks an action that was structurally valid but has no
// effect given current state (stale from_state, already-claimed buzzer,
// duplicate advance). It is silently dropped: no mutation, no reply,
// no broadcast. Distinct from a rejection.
var ErrNothingToDo = errors.New("nothing to do")

// RejectError is a genuinely illegal action or malformed input. Its message
// is sent to the originating connection only; state is not mutated and
// nothing is broadcast.
type RejectError struct {
	msg string
}

func (e *RejectError) Error() string { return e.msg }

// Reject builds a rejection with a human-readable message.
func Reject(format string, args ...any) error {
	return &RejectError{msg: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is (or wraps) a rejection.
func IsRejection(err error) bool {
	var r *RejectError
	return errors.As(err, &r)
}

// IsNothingToDo reports whether err is (or wraps) the silent-drop outcome.
func IsNothingToDo(err error) bool {
	return errors.Is(err, ErrNothingToDo)
}
