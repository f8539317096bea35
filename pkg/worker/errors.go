package worker

import (
    "errors"
    "fmt"
)

var (
    ErrAlreadyStarted = errors.New("worker: go already called")
    ErrClosed         = errors.New("worker: handle closed")
)

// ScriptError is a failure inside a worker context, as reported by the
// context itself.
type ScriptError struct {
    WorkerID string
    Message  string
    File     string
    Line     int
}

func (e *ScriptError) Error() string {
    return fmt.Sprintf("ERROR at %s:%d: %s", e.File, e.Line, e.Message)
}
