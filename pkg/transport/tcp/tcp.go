package tcp

import (
    "context"
    "errors"
    "net"
    "sync"
    "time"

    "katamesh/pkg/transport"
)

var ErrListenerClosed = errors.New("tcp listener closed")

// Transport implements a stream-based TCP transport with length-prefixed frames (u32 LE).
type Transport struct{}

func New() *Transport { return &Transport{} }

func (t *Transport) Kind() transport.Kind { return transport.KindTCP }

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
    var lc net.ListenConfig
    l, err := lc.Listen(ctx, "tcp", address)
    if err != nil { return nil, err }
    tl := &listener{l: l, newCh: make(chan *session, 8), closeCh: make(chan struct{})}
    go tl.acceptLoop()
    go func() {
        select {
        case <-ctx.Done():
            _ = tl.Close()
        case <-tl.closeCh:
        }
    }()
    return tl, nil
}

func (t *Transport) Dial(ctx context.Context, address string) (transport.Session, error) {
    d := &net.Dialer{}
    c, err := d.DialContext(ctx, "tcp", address)
    if err != nil { return nil, err }
    return newSession(c), nil
}

type listener struct {
    l       net.Listener
    newCh   chan *session
    closeCh chan struct{}
    once    sync.Once
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, ErrListenerClosed
    case s := <-l.newCh:
        return s, nil
    }
}

func (l *listener) Close() error {
    var err error
    l.once.Do(func() {
        close(l.closeCh)
        err = l.l.Close()
    })
    return err
}

func (l *listener) acceptLoop() {
    for {
        c, err := l.l.Accept()
        if err != nil { return }
        s := newSession(c)
        select {
        case l.newCh <- s:
        case <-l.closeCh:
            _ = s.Close()
            return
        }
    }
}

type session struct {
    c             net.Conn
    st            *transport.FramedStream
    establishedAt time.Time
}

func newSession(c net.Conn) *session {
    return &session{c: c, st: transport.NewFramedStream(c), establishedAt: time.Now()}
}

func (s *session) TransportKind() transport.Kind { return transport.KindTCP }
func (s *session) LocalAddr() net.Addr           { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr          { return s.c.RemoteAddr() }
func (s *session) EstablishedAt() time.Time      { return s.establishedAt }
func (s *session) Close() error                  { return s.c.Close() }

// A TCP connection carries exactly one stream in each direction.
func (s *session) OpenStream(context.Context) (transport.Stream, error)   { return s.st, nil }
func (s *session) AcceptStream(context.Context) (transport.Stream, error) { return s.st, nil }
