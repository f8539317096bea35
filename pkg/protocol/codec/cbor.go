package codec

import (
    "fmt"

    cbor "github.com/fxamacker/cbor/v2"
)

type cborCodec struct{ enc cbor.EncMode; dec cbor.DecMode }

// CBOR returns a deterministic CBOR codec (RFC 8949, core deterministic
// profile). Values decoded into an interface are normalized like the JSON
// codec's: string-keyed maps, scalar keys stringified.
func CBOR() (Codec, error) {
    em, err := cbor.CoreDetEncOptions().EncMode()
    if err != nil { return nil, err }
    dm, err := cbor.DecOptions{}.DecMode()
    if err != nil { return nil, err }
    return cborCodec{enc: em, dec: dm}, nil
}

func (c cborCodec) ContentType() string { return "application/cbor" }

// Marshal refuses map keys the decoding side could not rebuild.
func (c cborCodec) Marshal(v any) ([]byte, error) {
    if err := checkKeys(v); err != nil {
        return nil, fmt.Errorf("cbor: %w", err)
    }
    return c.enc.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte, v any) error {
    t, ok := v.(*any)
    if !ok {
        return c.dec.Unmarshal(data, v)
    }
    var raw any
    if err := c.dec.Unmarshal(data, &raw); err != nil {
        return err
    }
    *t = plainData(raw)
    return nil
}
