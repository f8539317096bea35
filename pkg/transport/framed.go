package transport

import (
    "bufio"
    "encoding/binary"
    "errors"
    "io"
    "sync"
)

// MaxFrame bounds a single frame on the wire.
const MaxFrame = 1 << 24

var ErrFrameSize = errors.New("invalid frame size")

// FramedStream implements Stream over an io.ReadWriteCloser using
// length-prefixed frames (u32 LE).
type FramedStream struct {
    mu sync.Mutex
    c  io.ReadWriteCloser
    br *bufio.Reader
    bw *bufio.Writer
}

// NewFramedStream wraps c. The caller hands ownership of c to the stream.
func NewFramedStream(c io.ReadWriteCloser) *FramedStream {
    return &FramedStream{c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c)}
}

func (s *FramedStream) SendBytes(b []byte) error {
    if len(b) > MaxFrame { return ErrFrameSize }
    s.mu.Lock(); defer s.mu.Unlock()
    var lenbuf [4]byte
    binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(b)))
    if _, err := s.bw.Write(lenbuf[:]); err != nil { return err }
    if _, err := s.bw.Write(b); err != nil { return err }
    return s.bw.Flush()
}

func (s *FramedStream) RecvBytes() ([]byte, error) {
    var lenbuf [4]byte
    if _, err := io.ReadFull(s.br, lenbuf[:]); err != nil { return nil, err }
    n := int(binary.LittleEndian.Uint32(lenbuf[:]))
    if n > MaxFrame { return nil, ErrFrameSize }
    buf := make([]byte, n)
    if _, err := io.ReadFull(s.br, buf); err != nil { return nil, err }
    return buf, nil
}

func (s *FramedStream) Close() error { return s.c.Close() }
