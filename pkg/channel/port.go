package channel

import (
    "errors"
    "fmt"
    "io"
    "sync"
    "sync/atomic"

    "go.uber.org/zap"

    "katamesh/pkg/protocol"
    "katamesh/pkg/protocol/codec"
    "katamesh/pkg/transport"
)

// Port is the endpoint used across a concurrent worker boundary. Payloads
// are serialized with the configured format, so only plain data (maps,
// slices, strings, numbers, bools, nil) survives the trip.
type Port struct {
    Listeners

    st     transport.Stream
    codecs *codec.Registry
    format protocol.Format
    log    *zap.Logger

    onError     func(protocol.ErrorReport)
    onBootstrap func(protocol.Bootstrap)

    seq       atomic.Uint32
    closed    atomic.Bool
    done      chan struct{}
    err       error
    closeOnce sync.Once
}

// PortOption configures a Port. Hooks must be given here, before the read
// loop starts.
type PortOption func(*Port)

// WithFormat selects the payload serialization (default CBOR).
func WithFormat(f protocol.Format) PortOption { return func(p *Port) { p.format = f } }

// WithCodecs replaces the codec registry.
func WithCodecs(r *codec.Registry) PortOption { return func(p *Port) { p.codecs = r } }

// WithLogger sets the logger used for dropped frames.
func WithLogger(l *zap.Logger) PortOption { return func(p *Port) { p.log = l } }

// OnError receives error reports sent by the other side.
func OnError(fn func(protocol.ErrorReport)) PortOption { return func(p *Port) { p.onError = fn } }

// OnBootstrap receives bootstrap frames (worker side only).
func OnBootstrap(fn func(protocol.Bootstrap)) PortOption { return func(p *Port) { p.onBootstrap = fn } }

// NewPort wraps st and starts reading from it. The port owns st.
func NewPort(st transport.Stream, opts ...PortOption) *Port {
    p := &Port{st: st, format: protocol.FormatCBOR, done: make(chan struct{})}
    for _, o := range opts {
        o(p)
    }
    if p.codecs == nil {
        p.codecs = codec.NewRegistry()
    }
    if p.log == nil {
        p.log = zap.L().Named("port")
    }
    go p.readLoop()
    return p
}

func (p *Port) Mode() DeliveryMode { return Asynchronous }

// Format returns the payload serialization in use.
func (p *Port) Format() protocol.Format { return p.format }

// Send serializes msg and writes it to the stream. Payloads the codec cannot
// represent fail with ErrUnserializable and nothing is written.
func (p *Port) Send(msg any) error { return p.write(protocol.FrameMessage, msg) }

// SendBootstrap writes the bootstrap descriptor.
func (p *Port) SendBootstrap(b protocol.Bootstrap) error {
    return p.write(protocol.FrameBootstrap, b.Tuple())
}

// SendError reports a script failure to the other side.
func (p *Port) SendError(r protocol.ErrorReport) error {
    return p.write(protocol.FrameError, r.Map())
}

func (p *Port) write(typ uint8, v any) error {
    if p.closed.Load() {
        return ErrClosed
    }
    e, err := protocol.NewEnvelope(p.codecs, typ, p.format, p.seq.Add(1), v)
    if err != nil {
        return fmt.Errorf("%w: %w", ErrUnserializable, err)
    }
    frame, err := e.EncodeFrame()
    if err != nil {
        return fmt.Errorf("%w: %w", ErrUnserializable, err)
    }
    if err := p.st.SendBytes(frame); err != nil {
        return fmt.Errorf("port send: %w", err)
    }
    return nil
}

// Close closes the underlying stream. The read loop exits once the stream
// reports the closure.
func (p *Port) Close() error {
    var err error
    p.closeOnce.Do(func() {
        p.closed.Store(true)
        err = p.st.Close()
    })
    return err
}

// Done is closed when the read loop has exited.
func (p *Port) Done() <-chan struct{} { return p.done }

// Err returns the error that ended the read loop, nil for a clean EOF or a
// local Close. Only meaningful after Done is closed.
func (p *Port) Err() error {
    <-p.done
    return p.err
}

func (p *Port) readLoop() {
    defer close(p.done)
    for {
        b, err := p.st.RecvBytes()
        if err != nil {
            if !errors.Is(err, io.EOF) && !p.closed.Load() {
                p.err = err
                p.log.Debug("port read loop ended", zap.Error(err))
            }
            return
        }
        p.dispatch(b)
    }
}

func (p *Port) dispatch(b []byte) {
    var e protocol.Envelope
    if err := e.DecodeFrame(b); err != nil {
        p.log.Warn("dropping malformed frame", zap.Error(err))
        return
    }
    var v any
    if err := protocol.DecodeBody(p.codecs, &e, &v); err != nil {
        p.log.Warn("dropping undecodable frame", zap.String("type", protocol.FrameTypeName(e.Header.Type)), zap.Uint32("seq", e.Header.Seq), zap.Error(err))
        return
    }
    switch e.Header.Type {
    case protocol.FrameMessage:
        p.Call(p, v)
    case protocol.FrameError:
        r, err := protocol.ErrorReportFromMap(v)
        if err != nil {
            p.log.Warn("dropping error frame", zap.Error(err))
            return
        }
        if p.onError == nil {
            p.log.Error("unhandled worker error", zap.String("message", r.Message), zap.String("file", r.File), zap.Int("line", r.Line))
            return
        }
        p.onError(r)
    case protocol.FrameBootstrap:
        if p.onBootstrap == nil {
            p.log.Warn("dropping unexpected bootstrap frame")
            return
        }
        bs, err := protocol.BootstrapFromTuple(v)
        if err != nil {
            _ = p.SendError(protocol.ErrorReport{Message: err.Error()})
            return
        }
        p.onBootstrap(bs)
    default:
        p.log.Warn("dropping frame of unknown type", zap.Uint8("type", e.Header.Type))
    }
}
