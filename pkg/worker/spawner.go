package worker

import (
    "context"
    "fmt"

    "go.uber.org/zap"

    "katamesh/pkg/transport"
    "katamesh/pkg/transport/mem"
)

// Spawner creates a fresh worker context and returns the parent's end of
// the stream connected to it.
type Spawner interface {
    Spawn(ctx context.Context) (transport.Stream, error)
}

// LocalSpawner runs each worker context in its own goroutine, connected over
// an in-memory pipe.
type LocalSpawner struct {
    host *Host
}

func NewLocalSpawner(h *Host) *LocalSpawner { return &LocalSpawner{host: h} }

func (s *LocalSpawner) Spawn(ctx context.Context) (transport.Stream, error) {
    parent, child := mem.Pipe()
    // The context lives until its stream closes, not as long as ctx.
    go func() {
        if err := s.host.Serve(context.WithoutCancel(ctx), child); err != nil {
            s.host.log.Debug("local worker ended", zap.Error(err))
        }
    }()
    return parent, nil
}

// RemoteSpawner starts worker contexts on a katamesh-host reachable over tr.
// Each spawn is a new session carrying one stream.
type RemoteSpawner struct {
    tr   transport.Transport
    addr string
}

func NewRemoteSpawner(tr transport.Transport, addr string) *RemoteSpawner {
    return &RemoteSpawner{tr: tr, addr: addr}
}

func (s *RemoteSpawner) Spawn(ctx context.Context) (transport.Stream, error) {
    sess, err := s.tr.Dial(ctx, s.addr)
    if err != nil {
        return nil, fmt.Errorf("dial %s %s: %w", s.tr.Kind(), s.addr, err)
    }
    st, err := sess.OpenStream(ctx)
    if err != nil {
        _ = sess.Close()
        return nil, fmt.Errorf("open stream to %s: %w", s.addr, err)
    }
    return &sessionStream{Stream: st, sess: sess}, nil
}

// sessionStream closes the session along with its only stream.
type sessionStream struct {
    transport.Stream
    sess transport.Session
}

func (s *sessionStream) Close() error {
    err := s.Stream.Close()
    _ = s.sess.Close()
    return err
}
