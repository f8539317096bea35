package transport

import (
    "context"
    "net"
    "time"
)

// Kind identifies the link type a stream runs over.
type Kind int

const (
    KindUnknown Kind = iota
    KindMem
    KindTCP
    KindQUIC
)

func (k Kind) String() string {
    switch k {
    case KindMem:
        return "mem"
    case KindTCP:
        return "tcp"
    case KindQUIC:
        return "quic"
    default:
        return "unknown"
    }
}

// Stream is a bidirectional, ordered frame stream.
// Exactly one reader and one writer goroutine are expected.
type Stream interface {
    // SendBytes sends one frame as opaque bytes (an encoded protocol.Envelope).
    SendBytes([]byte) error
    // RecvBytes receives the next frame and returns its bytes.
    RecvBytes() ([]byte, error)
    Close() error
}

// Session is a connection to a remote worker host or to a parent. Worker
// channels do not multiplex, so a session carries a single stream.
type Session interface {
    TransportKind() Kind
    LocalAddr() net.Addr
    RemoteAddr() net.Addr

    // OpenStream opens (dialer side) the session's stream.
    OpenStream(ctx context.Context) (Stream, error)
    // AcceptStream waits for (listener side) the session's stream.
    AcceptStream(ctx context.Context) (Stream, error)

    // EstablishedAt reports when the session was set up.
    EstablishedAt() time.Time

    Close() error
}

// Listener accepts inbound sessions.
type Listener interface {
    // Accept blocks until an inbound session is available or ctx is done.
    Accept(ctx context.Context) (Session, error)
    // Addr returns the local listening address.
    Addr() net.Addr
    // Close stops the listener and unblocks Accept.
    Close() error
}

// Transport provides dialing/listening for a specific link kind.
type Transport interface {
    Kind() Kind
    // Listen starts accepting inbound sessions on address (transport-specific format).
    Listen(ctx context.Context, address string) (Listener, error)
    // Dial creates an outbound session to address.
    Dial(ctx context.Context, address string) (Session, error)
}
