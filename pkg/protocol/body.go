package protocol

import (
    "fmt"

    "katamesh/pkg/protocol/codec"
)

// Format is a compact on-wire indicator of payload encoding.
// It is carried in Header.Format for every frame with a body.
type Format uint8

const (
    FormatUnknown Format = iota
    FormatJSON
    FormatCBOR
    FormatProto
)

func (f Format) String() string {
    switch f {
    case FormatJSON:
        return ContentJSON
    case FormatCBOR:
        return ContentCBOR
    case FormatProto:
        return ContentProto
    default:
        return ContentUnknown
    }
}

// ParseFormat maps a config value ("cbor", "json", "proto" or a content type)
// to a Format.
func ParseFormat(s string) (Format, error) {
    switch s {
    case "cbor", ContentCBOR:
        return FormatCBOR, nil
    case "json", ContentJSON:
        return FormatJSON, nil
    case "proto", "protobuf", ContentProto:
        return FormatProto, nil
    default:
        return FormatUnknown, fmt.Errorf("unknown format: %q", s)
    }
}

// CodecFor returns a codec instance for a given format.
func CodecFor(r *codec.Registry, f Format) (codec.Codec, error) {
    if r != nil {
        if c := r.Get(f.String()); c != nil { return c, nil }
    }
    switch f {
    case FormatJSON:
        return codec.JSON(), nil
    case FormatCBOR:
        return codec.CBOR()
    case FormatProto:
        return codec.Proto(), nil
    default:
        return nil, fmt.Errorf("unknown format: %d", f)
    }
}

// NewEnvelope encodes v with the codec for f and returns a frame of type typ.
func NewEnvelope(r *codec.Registry, typ uint8, f Format, seq uint32, v any) (Envelope, error) {
    c, err := CodecFor(r, f)
    if err != nil { return Envelope{}, err }
    b, err := c.Marshal(v)
    if err != nil { return Envelope{}, err }
    e := Envelope{Header: Header{Version: Version, Type: typ, Format: f, Seq: seq}, Payload: b}
    e.Header.PayloadLen = uint32(len(b))
    return e, nil
}

// DecodeBody decodes the payload of e into v using the format in its header.
func DecodeBody(r *codec.Registry, e *Envelope, v any) error {
    c, err := CodecFor(r, e.Header.Format)
    if err != nil { return err }
    return c.Unmarshal(e.Payload, v)
}
