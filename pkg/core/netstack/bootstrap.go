// Package netstack turns configuration into running transports: listeners
// that host worker contexts, and spawners that reach them.
package netstack

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"

    "katamesh/pkg/config"
    "katamesh/pkg/transports"
    "katamesh/pkg/worker"
)

// Options controls dial retries for remote spawning.
type Options struct {
    BackoffInitial time.Duration
    BackoffMax     time.Duration
    BackoffJitter  time.Duration
    // Attempts bounds dials per spawn; zero means 5.
    Attempts int
}

// Manager reports what StartFromConfig has running.
type Manager struct {
    activeListeners atomic.Int64
}

func (m *Manager) ActiveListeners() int64 { return m.activeListeners.Load() }

// StartFromConfig opens every configured listen endpoint and serves worker
// contexts on it through host. Endpoints that fail to open are logged and
// skipped; it is an error only when none opens. The returned closer stops
// the listeners; serving also stops when ctx is done.
func StartFromConfig(ctx context.Context, listens []config.ListenConfig, host *worker.Host) (func(), *Manager, error) {
    var closers []func()
    var mu sync.Mutex
    addCloser := func(f func()) { mu.Lock(); defer mu.Unlock(); closers = append(closers, f) }
    nm := &Manager{}
    var errs []error
    started := 0

    for _, lc := range listens {
        tr, err := transports.NewByKind(lc.Kind)
        if err != nil {
            zap.L().Warn("transport kind not available", zap.String("kind", lc.Kind), zap.Error(err))
            errs = append(errs, err)
            continue
        }
        l, err := tr.Listen(ctx, lc.Address)
        if err != nil {
            zap.L().Error("listen failed", zap.String("kind", tr.Kind().String()), zap.String("addr", lc.Address), zap.Error(err))
            errs = append(errs, fmt.Errorf("listen %s %s: %w", lc.Kind, lc.Address, err))
            continue
        }
        zap.L().Info("listening", zap.String("kind", tr.Kind().String()), zap.String("addr", l.Addr().String()))
        addCloser(func() { _ = l.Close() })
        started++
        nm.activeListeners.Add(1)
        go func() {
            defer nm.activeListeners.Add(-1)
            if err := host.ServeListener(ctx, l); err != nil {
                zap.L().Warn("listener stopped", zap.String("addr", l.Addr().String()), zap.Error(err))
            }
        }()
    }

    closer := func() {
        mu.Lock()
        defer mu.Unlock()
        for i := len(closers) - 1; i >= 0; i-- {
            closers[i]()
        }
    }
    if len(listens) > 0 && started == 0 {
        closer()
        return nil, nil, fmt.Errorf("no listener started: %w", errors.Join(errs...))
    }
    return closer, nm, nil
}
