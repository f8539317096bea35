package protocol

import (
    "testing"

    "katamesh/pkg/protocol/codec"
)

func TestNewEnvelopeJSON(t *testing.T) {
    reg := codec.NewRegistry()
    in := map[string]any{"x": 1, "y": "z"}
    e, err := NewEnvelope(reg, FrameMessage, FormatJSON, 3, in)
    if err != nil { t.Fatalf("encode: %v", err) }
    if e.Header.Format != FormatJSON || e.Header.Seq != 3 || e.Header.Type != FrameMessage {
        t.Fatalf("header mismatch: %#v", e.Header)
    }
    var out map[string]any
    if err := DecodeBody(reg, &e, &out); err != nil { t.Fatalf("decode: %v", err) }
    if out["y"] != "z" { t.Fatalf("value mismatch: %#v", out) }
}

func TestBootstrapTupleAcrossFormats(t *testing.T) {
    reg := codec.NewRegistry()
    in := Bootstrap{RootLocator: "scripts/", CodeLocator: "sirikata/camera", CapabilityPath: "Sirikata.CameraScript", Args: map[string]any{"spaceid": "s1"}}
    for _, f := range []Format{FormatJSON, FormatCBOR, FormatProto} {
        e, err := NewEnvelope(reg, FrameBootstrap, f, 0, in.Tuple())
        if err != nil { t.Fatalf("%s encode: %v", f, err) }
        frame, err := e.EncodeFrame()
        if err != nil { t.Fatalf("%s frame: %v", f, err) }
        var d Envelope
        if err := d.DecodeFrame(frame); err != nil { t.Fatalf("%s decode frame: %v", f, err) }
        var raw any
        if err := DecodeBody(reg, &d, &raw); err != nil { t.Fatalf("%s decode: %v", f, err) }
        out, err := BootstrapFromTuple(raw)
        if err != nil { t.Fatalf("%s tuple: %v", f, err) }
        if out.RootLocator != in.RootLocator || out.CodeLocator != in.CodeLocator || out.CapabilityPath != in.CapabilityPath {
            t.Fatalf("%s bootstrap mismatch: %#v", f, out)
        }
        if out.Args.(map[string]any)["spaceid"] != "s1" { t.Fatalf("%s args mismatch: %#v", f, out.Args) }
    }
}

func TestBootstrapFromTupleRejectsGarbage(t *testing.T) {
    if _, err := BootstrapFromTuple([]any{"a", "b"}); err == nil { t.Fatalf("expected error for short tuple") }
    if _, err := BootstrapFromTuple([]any{"a", 1, "c", nil}); err == nil { t.Fatalf("expected error for non-string locator") }
    if _, err := BootstrapFromTuple("x"); err == nil { t.Fatalf("expected error for scalar") }
}

func TestErrorReportMapRoundtrip(t *testing.T) {
    reg := codec.NewRegistry()
    in := ErrorReport{Message: "boom", File: "camera.go", Line: 17}
    for _, f := range []Format{FormatJSON, FormatCBOR, FormatProto} {
        e, err := NewEnvelope(reg, FrameError, f, 0, in.Map())
        if err != nil { t.Fatalf("%s encode: %v", f, err) }
        var raw any
        if err := DecodeBody(reg, &e, &raw); err != nil { t.Fatalf("%s decode: %v", f, err) }
        out, err := ErrorReportFromMap(raw)
        if err != nil { t.Fatalf("%s map: %v", f, err) }
        if out != in { t.Fatalf("%s report mismatch: %#v", f, out) }
    }
}

func TestParseFormat(t *testing.T) {
    cases := map[string]Format{"cbor": FormatCBOR, "json": FormatJSON, "proto": FormatProto, ContentJSON: FormatJSON}
    for in, want := range cases {
        got, err := ParseFormat(in)
        if err != nil || got != want { t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err) }
    }
    if _, err := ParseFormat("xml"); err == nil { t.Fatalf("expected error for xml") }
}
