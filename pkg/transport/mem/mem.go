package mem

import (
    "context"
    "errors"
    "io"
    "net"
    "sync"
    "time"

    "katamesh/pkg/transport"
)

var (
    ErrListenerExists = errors.New("mem: listener already exists")
    ErrNoListener     = errors.New("mem: no such listener")
    ErrListenerClosed = errors.New("mem: listener closed")
    ErrBacklogFull    = errors.New("mem: accept backlog full")
)

// Transport is an in-process transport. Sends never block: each direction is
// an unbounded queue, which is what a message port promises its callers.
type Transport struct {
    mu        sync.Mutex
    listeners map[string]*listener
}

func New() *Transport { return &Transport{listeners: make(map[string]*listener)} }

func (t *Transport) Kind() transport.Kind { return transport.KindMem }

func (t *Transport) Listen(ctx context.Context, name string) (transport.Listener, error) {
    t.mu.Lock(); defer t.mu.Unlock()
    if _, ok := t.listeners[name]; ok {
        return nil, ErrListenerExists
    }
    l := &listener{name: name, newCh: make(chan *session, 8), closeCh: make(chan struct{})}
    t.listeners[name] = l
    go func() {
        select {
        case <-ctx.Done():
        case <-l.closeCh:
        }
        _ = l.Close()
        t.mu.Lock(); delete(t.listeners, name); t.mu.Unlock()
    }()
    return l, nil
}

func (t *Transport) Dial(ctx context.Context, name string) (transport.Session, error) {
    t.mu.Lock(); l := t.listeners[name]; t.mu.Unlock()
    if l == nil { return nil, ErrNoListener }
    a, b := Pipe()
    now := time.Now()
    srv := &session{local: memAddr(name), remote: memAddr("dialer"), st: b, establishedAt: now}
    cli := &session{local: memAddr("dialer"), remote: memAddr(name), st: a, establishedAt: now}
    select {
    case l.newCh <- srv:
    case <-l.closeCh:
        return nil, ErrListenerClosed
    default:
        return nil, ErrBacklogFull
    }
    go func() { <-ctx.Done(); _ = cli.Close() }()
    return cli, nil
}

type listener struct {
    name    string
    newCh   chan *session
    closeCh chan struct{}
    once    sync.Once
}

func (l *listener) Addr() net.Addr { return memAddr(l.name) }

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
    l.once.Do(func() { close(l.closeCh) })
    return nil
}

type memAddr string
func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

type session struct {
    local, remote net.Addr
    st            transport.Stream
    establishedAt time.Time
}

func (s *session) TransportKind() transport.Kind { return transport.KindMem }
func (s *session) LocalAddr() net.Addr           { return s.local }
func (s *session) RemoteAddr() net.Addr          { return s.remote }
func (s *session) EstablishedAt() time.Time      { return s.establishedAt }
func (s *session) Close() error                  { return s.st.Close() }

func (s *session) OpenStream(context.Context) (transport.Stream, error)   { return s.st, nil }
func (s *session) AcceptStream(context.Context) (transport.Stream, error) { return s.st, nil }

// Pipe returns the two ends of an in-process frame stream. Frames sent on one
// end are received, in order, on the other. Closing either end makes both
// ends' RecvBytes return io.EOF once drained.
func Pipe() (transport.Stream, transport.Stream) {
    ab, ba := newQueue(), newQueue()
    return &pipeEnd{in: ba, out: ab}, &pipeEnd{in: ab, out: ba}
}

type pipeEnd struct {
    in, out *queue
}

func (p *pipeEnd) SendBytes(b []byte) error {
    if len(b) > transport.MaxFrame { return transport.ErrFrameSize }
    return p.out.push(append([]byte(nil), b...))
}

func (p *pipeEnd) RecvBytes() ([]byte, error) { return p.in.pop() }

func (p *pipeEnd) Close() error {
    p.in.close()
    p.out.close()
    return nil
}

type queue struct {
    mu     sync.Mutex
    cond   *sync.Cond
    frames [][]byte
    closed bool
}

func newQueue() *queue {
    q := &queue{}
    q.cond = sync.NewCond(&q.mu)
    return q
}

func (q *queue) push(b []byte) error {
    q.mu.Lock(); defer q.mu.Unlock()
    if q.closed { return io.ErrClosedPipe }
    q.frames = append(q.frames, b)
    q.cond.Signal()
    return nil
}

func (q *queue) pop() ([]byte, error) {
    q.mu.Lock(); defer q.mu.Unlock()
    for len(q.frames) == 0 && !q.closed {
        q.cond.Wait()
    }
    if len(q.frames) == 0 { return nil, io.EOF }
    b := q.frames[0]
    q.frames[0] = nil
    q.frames = q.frames[1:]
    return b, nil
}

func (q *queue) close() {
    q.mu.Lock(); defer q.mu.Unlock()
    q.closed = true
    q.cond.Broadcast()
}
