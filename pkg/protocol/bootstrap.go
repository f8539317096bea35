package protocol

import (
    "errors"
    "fmt"
)

// Bootstrap is the first frame a spawned worker context receives. On the wire
// it is an ordered 4-tuple so every codec carries it the same way.
type Bootstrap struct {
    RootLocator    string
    CodeLocator    string
    CapabilityPath string
    Args           any
}

var ErrBadBootstrap = errors.New("malformed bootstrap tuple")

// Tuple returns the wire form [root, code, path, args].
func (b Bootstrap) Tuple() []any {
    return []any{b.RootLocator, b.CodeLocator, b.CapabilityPath, b.Args}
}

// BootstrapFromTuple parses the wire form produced by Tuple.
func BootstrapFromTuple(v any) (Bootstrap, error) {
    t, ok := v.([]any)
    if !ok || len(t) != 4 {
        return Bootstrap{}, fmt.Errorf("%w: %T", ErrBadBootstrap, v)
    }
    var b Bootstrap
    var okRoot, okCode, okPath bool
    b.RootLocator, okRoot = t[0].(string)
    b.CodeLocator, okCode = t[1].(string)
    b.CapabilityPath, okPath = t[2].(string)
    if !okRoot || !okCode || !okPath {
        return Bootstrap{}, fmt.Errorf("%w: non-string locator or path", ErrBadBootstrap)
    }
    b.Args = t[3]
    return b, nil
}

// ErrorReport is what a worker context sends back when its script fails.
type ErrorReport struct {
    Message string `json:"message" cbor:"message"`
    File    string `json:"file" cbor:"file"`
    Line    int    `json:"line" cbor:"line"`
}

// Map returns the report as a plain map, the shape every codec round-trips.
func (r ErrorReport) Map() map[string]any {
    return map[string]any{"message": r.Message, "file": r.File, "line": r.Line}
}

// ErrorReportFromMap is the inverse of Map. Numeric line values of any codec
// number type are accepted.
func ErrorReportFromMap(v any) (ErrorReport, error) {
    m, ok := v.(map[string]any)
    if !ok {
        return ErrorReport{}, fmt.Errorf("error report: unexpected %T", v)
    }
    var r ErrorReport
    r.Message, _ = m["message"].(string)
    r.File, _ = m["file"].(string)
    switch n := m["line"].(type) {
    case int:
        r.Line = n
    case int64:
        r.Line = int(n)
    case uint64:
        r.Line = int(n)
    case float64:
        r.Line = int(n)
    }
    return r, nil
}
