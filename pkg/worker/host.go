package worker

import (
    "context"
    "errors"
    "fmt"
    "runtime"
    "strings"
    "sync"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "katamesh/pkg/channel"
    "katamesh/pkg/namespace"
    "katamesh/pkg/protocol"
    "katamesh/pkg/protocol/codec"
    "katamesh/pkg/registry"
    "katamesh/pkg/transport"
)

// Host is the worker side of a concurrent handle: it waits for the
// bootstrap frame, loads and resolves the requested script, and constructs
// it bound to the worker end of the port.
type Host struct {
    ns      *namespace.Namespace
    format  protocol.Format
    codecs  *codec.Registry
    tracker *registry.Store
    log     *zap.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

func HostFormat(f protocol.Format) HostOption  { return func(h *Host) { h.format = f } }
func HostCodecs(r *codec.Registry) HostOption  { return func(h *Host) { h.codecs = r } }
func HostTracker(s *registry.Store) HostOption { return func(h *Host) { h.tracker = s } }
func HostLogger(l *zap.Logger) HostOption      { return func(h *Host) { h.log = l } }

// NewHost returns a host resolving scripts in ns.
func NewHost(ns *namespace.Namespace, opts ...HostOption) *Host {
    h := &Host{ns: ns, format: protocol.FormatCBOR}
    for _, o := range opts {
        o(h)
    }
    if h.codecs == nil {
        h.codecs = codec.NewRegistry()
    }
    if h.log == nil {
        h.log = zap.L().Named("host")
    }
    return h
}

// Serve runs one worker context over st until the stream ends or ctx is
// done. The context owns st.
func (h *Host) Serve(ctx context.Context, st transport.Stream) error {
    id := uuid.NewString()
    log := h.log.With(zap.String("worker", id))
    var (
        mu     sync.Mutex
        booted bool
        port   *channel.Port
    )
    ready := make(chan struct{})
    port = channel.NewPort(st,
        channel.WithFormat(h.format),
        channel.WithCodecs(h.codecs),
        channel.WithLogger(log),
        channel.OnBootstrap(func(bs protocol.Bootstrap) {
            <-ready
            mu.Lock()
            again := booted
            booted = true
            mu.Unlock()
            if again {
                _ = port.SendError(protocol.ErrorReport{Message: "bootstrap received twice", File: bs.CodeLocator})
                return
            }
            h.bootstrap(id, log, port, bs)
        }),
    )
    close(ready)
    if h.tracker != nil {
        h.tracker.Put(registry.Record{WorkerID: id, Variant: VariantHosted.String(), State: registry.StateConstructed})
        defer h.tracker.Transition(id, registry.StateClosed, "")
    }

    select {
    case <-port.Done():
    case <-ctx.Done():
        _ = port.Close()
        <-port.Done()
    }
    err := port.Err()
    log.Debug("worker context ended", zap.Error(err))
    return err
}

func (h *Host) bootstrap(id string, log *zap.Logger, port *channel.Port, bs protocol.Bootstrap) {
    log = log.With(zap.String("path", bs.CapabilityPath), zap.String("locator", bs.CodeLocator))
    if h.tracker != nil {
        h.tracker.Put(registry.Record{WorkerID: id, CodeLocator: bs.CodeLocator, CapabilityPath: bs.CapabilityPath, Variant: VariantHosted.String(), State: registry.StateRunning})
    }
    report := func(r protocol.ErrorReport) {
        log.Warn("script failed", zap.String("message", r.Message), zap.String("file", r.File), zap.Int("line", r.Line))
        if h.tracker != nil {
            h.tracker.Transition(id, registry.StateFailed, r.Message)
        }
        if err := port.SendError(r); err != nil {
            log.Error("could not report script failure", zap.Error(err))
        }
    }

    locator := namespace.JoinLocator(bs.RootLocator, bs.CodeLocator)
    if err := h.ns.Include(locator); err != nil {
        report(protocol.ErrorReport{Message: err.Error(), File: locator})
        return
    }
    entry, err := h.ns.Resolve(bs.CapabilityPath)
    if err != nil {
        report(protocol.ErrorReport{Message: err.Error(), File: locator})
        return
    }
    log.Debug("constructing script")
    if r, failed := construct(entry, port, bs.Args); failed {
        report(r)
    }
}

// construct calls the script constructor, turning a returned error or a
// panic into an error report.
func construct(entry namespace.Entry, ch channel.Channel, args any) (r protocol.ErrorReport, failed bool) {
    defer func() {
        if v := recover(); v != nil {
            file, line := panicSite()
            r, failed = protocol.ErrorReport{Message: fmt.Sprint(v), File: file, Line: line}, true
        }
    }()
    if _, err := entry.New(ch, args); err != nil {
        return protocol.ErrorReport{Message: err.Error(), File: entry.File, Line: entry.Line}, true
    }
    return protocol.ErrorReport{}, false
}

// panicSite finds the frame that called panic, from inside a deferred
// recover.
func panicSite() (string, int) {
    pcs := make([]uintptr, 32)
    n := runtime.Callers(2, pcs)
    frames := runtime.CallersFrames(pcs[:n])
    sawPanic := false
    for {
        f, more := frames.Next()
        if sawPanic && !strings.HasPrefix(f.Function, "runtime.") {
            return f.File, f.Line
        }
        if f.Function == "runtime.gopanic" {
            sawPanic = true
        }
        if !more {
            return "unknown", 0
        }
    }
}

// ServeListener accepts sessions on l and serves one worker context per
// session until ctx is done or the listener fails.
func (h *Host) ServeListener(ctx context.Context, l transport.Listener) error {
    for {
        s, err := l.Accept(ctx)
        if err != nil {
            if ctx.Err() != nil {
                return nil
            }
            return fmt.Errorf("accept on %s: %w", l.Addr(), err)
        }
        h.log.Info("inbound session", zap.String("kind", s.TransportKind().String()), zap.Stringer("raddr", s.RemoteAddr()))
        go func() {
            defer s.Close()
            st, err := s.AcceptStream(ctx)
            if err != nil {
                h.log.Warn("accept stream failed", zap.Error(err))
                return
            }
            if err := h.Serve(ctx, st); err != nil && !errors.Is(err, context.Canceled) {
                h.log.Debug("session ended", zap.Error(err))
            }
        }()
    }
}
