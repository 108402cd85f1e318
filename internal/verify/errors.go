package verify

import (
	"errors"
	"fmt"
)

// Stages a run can fail in, in the order they are reached.
const (
	StageLaunch     = "LAUNCH"
	StageContext    = "CONTEXT"
	StageNavigation = "NAVIGATION"
	StageCapture    = "CAPTURE"
)

// ErrTargetsFailed is returned when a continue-on-error run finished with failed targets.
var ErrTargetsFailed = errors.New("one or more targets failed")

// StageError records which step of the run failed and, for per-target stages, which target.
type StageError struct {
	Stage   string
	Target  string
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	prefix := e.Stage
	if e.Target != "" {
		prefix += " " + e.Target
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

func newStageError(stage, target, msg string, cause error) error {
	return &StageError{Stage: stage, Target: target, Message: msg, Cause: cause}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
