package quic

import (
    "context"
    "crypto/rand"
    "crypto/rsa"
    "crypto/tls"
    "crypto/x509"
    "errors"
    "math/big"
    "net"
    "sync"
    "time"

    quicgo "github.com/quic-go/quic-go"

    "katamesh/pkg/transport"
)

const alpn = "katamesh"

var ErrListenerClosed = errors.New("quic listener closed")

// Transport implements QUIC sessions carrying one bidirectional stream with
// length-prefixed frames. The dialer opens the stream; the listener accepts it.
type Transport struct {
    tlsConf  *tls.Config
    quicConf *quicgo.Config
}

// New builds a transport with an ephemeral self-signed server certificate.
func New() (*Transport, error) {
    cert, err := selfSignedCert()
    if err != nil { return nil, err }
    tlsConf := &tls.Config{
        Certificates: []tls.Certificate{cert},
        NextProtos:   []string{alpn},
        MinVersion:   tls.VersionTLS13,
    }
    return &Transport{tlsConf: tlsConf, quicConf: &quicgo.Config{KeepAlivePeriod: 15 * time.Second}}, nil
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
    l, err := quicgo.ListenAddr(address, t.tlsConf, t.quicConf)
    if err != nil { return nil, err }
    ql := &listener{l: l, newCh: make(chan *session, 8), closeCh: make(chan struct{})}
    go ql.acceptLoop(ctx)
    go func() {
        select {
        case <-ctx.Done():
            _ = ql.Close()
        case <-ql.closeCh:
        }
    }()
    return ql, nil
}

func (t *Transport) Dial(ctx context.Context, address string) (transport.Session, error) {
    // Worker hosts are reached over loopback or a trusted network; the host
    // certificate is ephemeral so there is nothing to pin.
    tlsClient := &tls.Config{
        InsecureSkipVerify: true,
        NextProtos:         []string{alpn},
        MinVersion:         tls.VersionTLS13,
    }
    c, err := quicgo.DialAddr(ctx, address, tlsClient, t.quicConf)
    if err != nil { return nil, err }
    return &session{c: c, establishedAt: time.Now()}, nil
}

// ---- Listener ----

type listener struct {
    l       *quicgo.Listener
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

func (l *listener) acceptLoop(ctx context.Context) {
    for {
        c, err := l.l.Accept(ctx)
        if err != nil { return }
        s := &session{c: c, establishedAt: time.Now()}
        select {
        case l.newCh <- s:
        case <-l.closeCh:
            _ = s.Close()
            return
        }
    }
}

// ---- Session ----

type session struct {
    c             *quicgo.Conn
    establishedAt time.Time

    mu sync.Mutex
    st *transport.FramedStream
}

func (s *session) TransportKind() transport.Kind { return transport.KindQUIC }
func (s *session) LocalAddr() net.Addr           { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr          { return s.c.RemoteAddr() }
func (s *session) EstablishedAt() time.Time      { return s.establishedAt }
func (s *session) Close() error                  { return s.c.CloseWithError(0, "") }

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.st != nil { return s.st, nil }
    qs, err := s.c.OpenStreamSync(ctx)
    if err != nil { return nil, err }
    s.st = transport.NewFramedStream(qs)
    return s.st, nil
}

// AcceptStream returns once the dialer has written its first frame.
func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.st != nil { return s.st, nil }
    qs, err := s.c.AcceptStream(ctx)
    if err != nil { return nil, err }
    s.st = transport.NewFramedStream(qs)
    return s.st, nil
}

// selfSignedCert generates a short-lived self-signed TLS certificate.
func selfSignedCert() (tls.Certificate, error) {
    priv, err := rsa.GenerateKey(rand.Reader, 2048)
    if err != nil { return tls.Certificate{}, err }
    tmpl := x509.Certificate{
        SerialNumber:          big.NewInt(time.Now().UnixNano()),
        NotBefore:             time.Now().Add(-time.Minute),
        NotAfter:              time.Now().Add(24 * time.Hour),
        KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
        ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
        BasicConstraintsValid: true,
        DNSNames:              []string{"localhost"},
    }
    der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
    if err != nil { return tls.Certificate{}, err }
    return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
