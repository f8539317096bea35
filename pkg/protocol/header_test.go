package protocol

import (
    "errors"
    "testing"
)

func TestHeaderRoundtrip(t *testing.T) {
    h := Header{Version: Version, Type: FrameError, Format: FormatCBOR, Flags: 1, Seq: 0xdeadbeef, PayloadLen: 1234}

    b, err := h.MarshalBinary()
    if err != nil { t.Fatalf("marshal: %v", err) }
    if len(b) != headerSize { t.Fatalf("header size = %d", len(b)) }

    var h2 Header
    if err := h2.UnmarshalBinary(b); err != nil { t.Fatalf("unmarshal: %v", err) }
    if h2 != h { t.Fatalf("headers differ: %#v vs %#v", h2, h) }
}

func TestHeaderRejectsBadInput(t *testing.T) {
    var h Header
    if err := h.UnmarshalBinary(make([]byte, 4)); !errors.Is(err, ErrShortHeader) {
        t.Fatalf("want ErrShortHeader, got %v", err)
    }
    if err := h.UnmarshalBinary(make([]byte, headerSize)); !errors.Is(err, ErrBadMagic) {
        t.Fatalf("want ErrBadMagic, got %v", err)
    }
}
