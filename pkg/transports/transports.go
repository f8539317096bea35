// Package transports constructs transport implementations by configured kind.
package transports

import (
    "strings"

    "katamesh/pkg/transport"
    "katamesh/pkg/transport/mem"
    tquic "katamesh/pkg/transport/quic"
    ttcp "katamesh/pkg/transport/tcp"
)

// ErrUnknownKind is returned for kinds with no implementation.
type ErrUnknownKind string

func (e ErrUnknownKind) Error() string { return "unknown transport kind: " + string(e) }

// shared so that a mem listener and a mem dialer in one process meet.
var memTransport = mem.New()

// NewByKind constructs a Transport by string kind.
func NewByKind(kind string) (transport.Transport, error) {
    switch strings.ToLower(strings.TrimSpace(kind)) {
    case "tcp":
        return ttcp.New(), nil
    case "quic":
        return tquic.New()
    case "mem", "inproc":
        return memTransport, nil
    default:
        return nil, ErrUnknownKind(kind)
    }
}
