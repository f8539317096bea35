package worker

import (
    "context"
    "fmt"
    "sync"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "katamesh/pkg/channel"
    "katamesh/pkg/namespace"
    "katamesh/pkg/protocol"
    "katamesh/pkg/protocol/codec"
    "katamesh/pkg/registry"
)

// Variant is the execution strategy chosen for a handle at construction.
type Variant uint8

const (
    VariantFallback   Variant = iota + 1 // in-process, synchronous Direct pair
    VariantConcurrent                    // spawned context behind a Port
    VariantHosted                        // worker side of a concurrent handle
)

func (v Variant) String() string {
    switch v {
    case VariantFallback:
        return "fallback"
    case VariantConcurrent:
        return "concurrent"
    case VariantHosted:
        return "hosted"
    default:
        return "unknown"
    }
}

// State of a handle. Channel moves Constructed to Armed; Go moves either to
// Running.
type State uint8

const (
    StateConstructed State = iota
    StateArmed
    StateRunning
    StateClosed
)

func (s State) String() string {
    switch s {
    case StateConstructed:
        return "constructed"
    case StateArmed:
        return "armed"
    case StateRunning:
        return "running"
    case StateClosed:
        return "closed"
    default:
        return "unknown"
    }
}

// ErrorHook receives script failures reported by a concurrent worker.
type ErrorHook func(*ScriptError)

type options struct {
    ns          *namespace.Namespace
    spawner     Spawner
    spawnerSet  bool
    format      protocol.Format
    codecs      *codec.Registry
    log         *zap.Logger
    hook        ErrorHook
    tracker     *registry.Store
    root        string
    concurrency *bool
}

// Option configures New.
type Option func(*options)

// WithNamespace resolves capability paths in ns instead of namespace.Default().
func WithNamespace(ns *namespace.Namespace) Option { return func(o *options) { o.ns = ns } }

// WithSpawner sets how concurrent contexts are created. A nil spawner means
// the host cannot run concurrent workers and every handle falls back.
func WithSpawner(s Spawner) Option {
    return func(o *options) { o.spawner, o.spawnerSet = s, true }
}

// WithFormat selects the Port payload serialization.
func WithFormat(f protocol.Format) Option { return func(o *options) { o.format = f } }

// WithCodecs replaces the codec registry used by the Port.
func WithCodecs(r *codec.Registry) Option { return func(o *options) { o.codecs = r } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithErrorHook replaces the default fatal handling of worker errors.
func WithErrorHook(h ErrorHook) Option { return func(o *options) { o.hook = h } }

// WithTracker records the handle lifecycle in s.
func WithTracker(s *registry.Store) Option { return func(o *options) { o.tracker = s } }

// WithRoot sets the root locator code locators are relative to.
func WithRoot(root string) Option { return func(o *options) { o.root = root } }

// WithConcurrency overrides the process-wide Enabled flag for one handle.
func WithConcurrency(on bool) Option { return func(o *options) { o.concurrency = &on } }

// Handle owns one worker context and the caller's end of its channel.
//
// A concurrent handle must be closed. Its port read loop and the spawned
// context keep running until Close ends the stream, and the error hook the
// port holds keeps the handle reachable, so dropping it leaks both.
// Closing a fallback handle only marks it closed.
type Handle struct {
    id      string
    variant Variant
    log     *zap.Logger
    hook    ErrorHook
    tracker *registry.Store

    mu    sync.Mutex
    state State

    // concurrent
    port    *channel.Port
    pending *protocol.Bootstrap

    // fallback; ctor and args are dropped once Go runs
    direct *channel.Direct
    ctor   namespace.Constructor
    args   any
}

// New captures what to run without starting it. The concurrent variant is
// used when concurrency is enabled and a spawner is available; the context is
// spawned here but receives nothing until Go. The fallback variant resolves
// capabilityPath now and fails if any component is missing.
func New(ctx context.Context, locator, capabilityPath string, args any, opts ...Option) (*Handle, error) {
    o := options{format: protocol.FormatCBOR}
    for _, fn := range opts {
        fn(&o)
    }
    if o.ns == nil {
        o.ns = namespace.Default()
    }
    if o.codecs == nil {
        o.codecs = codec.NewRegistry()
    }
    if o.log == nil {
        o.log = zap.L().Named("worker")
    }
    if !o.spawnerSet {
        o.spawner = NewLocalSpawner(NewHost(o.ns,
            HostFormat(o.format), HostCodecs(o.codecs), HostTracker(o.tracker), HostLogger(o.log.Named("host"))))
    }
    concurrent := Enabled()
    if o.concurrency != nil {
        concurrent = *o.concurrency
    }

    h := &Handle{
        id:      uuid.NewString(),
        hook:    o.hook,
        tracker: o.tracker,
    }
    h.log = o.log.With(zap.String("worker", h.id), zap.String("path", capabilityPath))

    if concurrent && o.spawner != nil {
        h.variant = VariantConcurrent
        st, err := o.spawner.Spawn(ctx)
        if err != nil {
            return nil, fmt.Errorf("spawn worker for %s: %w", capabilityPath, err)
        }
        h.port = channel.NewPort(st,
            channel.WithFormat(o.format),
            channel.WithCodecs(o.codecs),
            channel.WithLogger(h.log),
            channel.OnError(func(r protocol.ErrorReport) { h.gotError(r.Message, r.File, r.Line) }),
        )
        h.pending = &protocol.Bootstrap{
            RootLocator:    o.root,
            CodeLocator:    locator,
            CapabilityPath: capabilityPath,
            Args:           args,
        }
    } else {
        h.variant = VariantFallback
        if err := o.ns.Include(namespace.JoinLocator(o.root, locator)); err != nil {
            h.log.Error("could not load script", zap.String("locator", locator), zap.Error(err))
            return nil, err
        }
        entry, err := o.ns.Resolve(capabilityPath)
        if err != nil {
            h.log.Error("no such capability", zap.Error(err))
            return nil, err
        }
        h.direct = channel.NewDirect()
        h.ctor = entry.New
        h.args = args
    }

    h.log.Debug("new webworker", zap.Stringer("variant", h.variant), zap.String("locator", locator))
    if h.tracker != nil {
        h.tracker.Put(registry.Record{
            WorkerID:       h.id,
            CodeLocator:    locator,
            CapabilityPath: capabilityPath,
            Variant:        h.variant.String(),
            State:          registry.StateConstructed,
        })
    }
    return h, nil
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Variant() Variant { return h.variant }

func (h *Handle) State() State {
    h.mu.Lock()
    defer h.mu.Unlock()
    return h.state
}

// Channel returns the caller's end. Subscribe on it before calling Go.
func (h *Handle) Channel() channel.Channel {
    h.mu.Lock()
    if h.state == StateConstructed {
        h.state = StateArmed
        h.transition(registry.StateArmed, "")
    }
    h.mu.Unlock()
    if h.variant == VariantConcurrent {
        return h.port
    }
    return h.direct
}

// Go starts the worker. Under the fallback variant the target is constructed
// on the calling goroutine and anything it sends while constructing has been
// delivered by the time Go returns. Go may run once; later calls return
// ErrAlreadyStarted and do nothing.
func (h *Handle) Go() error {
    h.mu.Lock()
    switch h.state {
    case StateRunning:
        h.mu.Unlock()
        return ErrAlreadyStarted
    case StateClosed:
        h.mu.Unlock()
        return ErrClosed
    }
    h.state = StateRunning
    h.log.Debug("going!")

    if h.variant == VariantConcurrent {
        bs := *h.pending
        h.pending = nil
        h.mu.Unlock()
        h.transition(registry.StateRunning, "")
        if err := h.port.SendBootstrap(bs); err != nil {
            h.transition(registry.StateFailed, err.Error())
            return fmt.Errorf("send bootstrap: %w", err)
        }
        return nil
    }

    ctor, args := h.ctor, h.args
    h.ctor, h.args = nil, nil
    opposing := channel.NewDirectPeer(h.direct)
    h.mu.Unlock()
    h.transition(registry.StateRunning, "")
    if _, err := ctor(opposing, args); err != nil {
        h.transition(registry.StateFailed, err.Error())
        return fmt.Errorf("construct worker: %w", err)
    }
    return nil
}

// Close tears down the concurrent context. The fallback variant has nothing
// to release beyond marking the handle closed.
func (h *Handle) Close() error {
    h.mu.Lock()
    if h.state == StateClosed {
        h.mu.Unlock()
        return nil
    }
    h.state = StateClosed
    h.pending = nil
    h.ctor, h.args = nil, nil
    h.mu.Unlock()
    h.transition(registry.StateClosed, "")
    if h.port != nil {
        return h.port.Close()
    }
    return nil
}

// gotError handles a failure reported by the worker context. Without a hook
// it is fatal for the process.
func (h *Handle) gotError(msg, file string, line int) {
    e := &ScriptError{WorkerID: h.id, Message: msg, File: file, Line: line}
    h.transition(registry.StateFailed, e.Error())
    if h.hook != nil {
        h.hook(e)
        return
    }
    h.log.Fatal(e.Error())
}

func (h *Handle) transition(state, errMsg string) {
    if h.tracker != nil {
        h.tracker.Transition(h.id, state, errMsg)
    }
}
