package netstack

import (
    "context"
    "fmt"
    "math/rand/v2"
    "time"

    "go.uber.org/zap"

    "katamesh/pkg/config"
    "katamesh/pkg/namespace"
    "katamesh/pkg/protocol"
    "katamesh/pkg/registry"
    "katamesh/pkg/transport"
    "katamesh/pkg/transports"
    "katamesh/pkg/worker"
)

// NewSpawner builds the spawner selected by cfg.Spawn. Local spawning runs
// worker contexts through host; tcp and quic dial the katamesh-host at
// cfg.Address, retrying with backoff.
func NewSpawner(cfg config.WorkersConfig, host *worker.Host, opts Options) (worker.Spawner, error) {
    switch cfg.Spawn {
    case "", "local":
        return worker.NewLocalSpawner(host), nil
    }
    tr, err := transports.NewByKind(cfg.Spawn)
    if err != nil {
        return nil, err
    }
    return &retrySpawner{inner: worker.NewRemoteSpawner(tr, cfg.Address), kind: tr.Kind(), addr: cfg.Address, opts: opts}, nil
}

// WorkerOptions maps configuration onto handle options: the codec, root
// locator, spawner and the process-wide enable flag.
func WorkerOptions(cfg config.WorkersConfig, ns *namespace.Namespace, tracker *registry.Store, opts Options) ([]worker.Option, error) {
    format, err := protocol.ParseFormat(cfg.Codec)
    if err != nil {
        return nil, err
    }
    host := worker.NewHost(ns, worker.HostFormat(format), worker.HostTracker(tracker))
    sp, err := NewSpawner(cfg, host, opts)
    if err != nil {
        return nil, err
    }
    worker.SetEnabled(cfg.Enabled)
    return []worker.Option{
        worker.WithNamespace(ns),
        worker.WithFormat(format),
        worker.WithRoot(cfg.RootLocator),
        worker.WithSpawner(sp),
        worker.WithTracker(tracker),
    }, nil
}

type retrySpawner struct {
    inner worker.Spawner
    kind  transport.Kind
    addr  string
    opts  Options
}

func (s *retrySpawner) Spawn(ctx context.Context) (transport.Stream, error) {
    backoff := s.opts.BackoffInitial
    if backoff <= 0 {
        backoff = 200 * time.Millisecond
    }
    maxBackoff := s.opts.BackoffMax
    if maxBackoff <= 0 {
        maxBackoff = 5 * time.Second
    }
    attempts := s.opts.Attempts
    if attempts <= 0 {
        attempts = 5
    }

    var lastErr error
    for i := 0; i < attempts; i++ {
        st, err := s.inner.Spawn(ctx)
        if err == nil {
            return st, nil
        }
        lastErr = err
        zap.L().Warn("spawn dial failed", zap.String("kind", s.kind.String()), zap.String("addr", s.addr), zap.Int("attempt", i+1), zap.Error(err))
        if i == attempts-1 {
            break
        }
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(withJitter(backoff, s.opts.BackoffJitter)):
        }
        backoff = min(backoff*2, maxBackoff)
    }
    return nil, fmt.Errorf("spawn on %s after %d attempts: %w", s.addr, attempts, lastErr)
}

func withJitter(d, jitter time.Duration) time.Duration {
    if jitter <= 0 {
        return d
    }
    return d + rand.N(jitter)
}
