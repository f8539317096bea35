package protocol

import (
    "encoding/binary"
    "errors"
)

// Fixed header layout (16 bytes). All integer fields are little-endian.
//
//  0  ..1   Magic   'K''W' (0x4b57)
//  2        Version u8
//  3        Type    u8
//  4        Format  u8 (body format, see Format)
//  5        Flags   u8
//  6  ..7   Reserved2 u16
//  8  ..11  Seq     u32 (per-sender frame counter)
//  12 ..15  PayloadLen u32
const (
    headerSize = 16
    magicWord  = uint16(0x4b57) // 'K''W'

    // Version is the current frame layout version.
    Version uint8 = 1
)

var (
    ErrShortHeader = errors.New("short header")
    ErrBadMagic    = errors.New("bad magic")
)

// Header describes metadata for an envelope.
type Header struct {
    Version    uint8
    Type       uint8
    Format     Format
    Flags      uint8
    Seq        uint32
    PayloadLen uint32
}

// MarshalBinary encodes header to a 16-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
    buf := make([]byte, headerSize)
    h.put(buf)
    return buf, nil
}

func (h *Header) put(buf []byte) {
    binary.LittleEndian.PutUint16(buf[0:2], magicWord)
    buf[2] = h.Version
    buf[3] = h.Type
    buf[4] = byte(h.Format)
    buf[5] = h.Flags
    // 6..7 reserved stays zero
    binary.LittleEndian.PutUint32(buf[8:12], h.Seq)
    binary.LittleEndian.PutUint32(buf[12:16], h.PayloadLen)
}

// UnmarshalBinary decodes header from a 16-byte buffer.
func (h *Header) UnmarshalBinary(buf []byte) error {
    if len(buf) < headerSize {
        return ErrShortHeader
    }
    if binary.LittleEndian.Uint16(buf[0:2]) != magicWord {
        return ErrBadMagic
    }
    h.Version = buf[2]
    h.Type = buf[3]
    h.Format = Format(buf[4])
    h.Flags = buf[5]
    h.Seq = binary.LittleEndian.Uint32(buf[8:12])
    h.PayloadLen = binary.LittleEndian.Uint32(buf[12:16])
    return nil
}
