package protocol

import (
    "fmt"
    "io"
)

// MaxPayload bounds a single frame payload. Transports reject larger frames.
const MaxPayload = 1 << 24

// Envelope is a header + payload wrapper for a single frame on a stream.
type Envelope struct {
    Header  Header
    Payload []byte
}

// WriteTo writes header + payload to w.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
    b, err := e.EncodeFrame()
    if err != nil {
        return 0, err
    }
    n, err := w.Write(b)
    return int64(n), err
}

// ReadFrom reads header + payload from r.
func (e *Envelope) ReadFrom(r io.Reader) (int64, error) {
    hb := make([]byte, headerSize)
    if _, err := io.ReadFull(r, hb); err != nil {
        return 0, err
    }
    if err := e.Header.UnmarshalBinary(hb); err != nil {
        return 0, err
    }
    if e.Header.PayloadLen > MaxPayload {
        return 0, fmt.Errorf("payload too large: %d", e.Header.PayloadLen)
    }
    e.Payload = nil
    if e.Header.PayloadLen > 0 {
        e.Payload = make([]byte, int(e.Header.PayloadLen))
        if _, err := io.ReadFull(r, e.Payload); err != nil {
            return 0, err
        }
    }
    return int64(headerSize + int(e.Header.PayloadLen)), nil
}

// EncodeFrame returns header+payload as a single byte slice.
func (e *Envelope) EncodeFrame() ([]byte, error) {
    if len(e.Payload) > MaxPayload {
        return nil, fmt.Errorf("payload too large: %d", len(e.Payload))
    }
    e.Header.PayloadLen = uint32(len(e.Payload))
    out := make([]byte, headerSize+len(e.Payload))
    e.Header.put(out[:headerSize])
    copy(out[headerSize:], e.Payload)
    return out, nil
}

// DecodeFrame parses a single frame from buf.
func (e *Envelope) DecodeFrame(buf []byte) error {
    if len(buf) < headerSize {
        return io.ErrUnexpectedEOF
    }
    if err := e.Header.UnmarshalBinary(buf[:headerSize]); err != nil {
        return err
    }
    need := int(e.Header.PayloadLen)
    if headerSize+need > len(buf) {
        return io.ErrUnexpectedEOF
    }
    e.Payload = append(e.Payload[:0], buf[headerSize:headerSize+need]...)
    return nil
}
