package codec

import (
    "reflect"
    "testing"

    "google.golang.org/protobuf/types/known/structpb"
)

func TestJSONCodec(t *testing.T) {
    c := JSON()
    in := map[string]any{"a": 1, "b": "x"}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out map[string]any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out["a"].(float64) != 1 || out["b"].(string) != "x" {
        t.Fatalf("roundtrip mismatch: %#v", out)
    }
}

func TestCBORCodecStringKeyedMaps(t *testing.T) {
    c, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    in := map[string]any{"n": 42, "inner": map[string]any{"radius": 1.0e8}}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    m, ok := out.(map[string]any)
    if !ok { t.Fatalf("want map[string]any, got %T", out) }
    if m["n"].(uint64) != 42 { t.Fatalf("n mismatch: %#v", m["n"]) }
    inner, ok := m["inner"].(map[string]any)
    if !ok || inner["radius"].(float64) != 1.0e8 { t.Fatalf("inner mismatch: %#v", m["inner"]) }
}

func TestCodecsRejectFunctions(t *testing.T) {
    cb, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    for _, c := range []Codec{JSON(), cb, Proto()} {
        if _, err := c.Marshal(map[string]any{"f": func() {}}); err == nil {
            t.Fatalf("%s: expected error for function payload", c.ContentType())
        }
    }
}

func TestProtoCodecMessage(t *testing.T) {
    c := Proto()
    s, err := structpb.NewStruct(map[string]any{"k": "v"})
    if err != nil { t.Fatalf("struct: %v", err) }
    b, err := c.Marshal(s)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out structpb.Struct
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out.Fields["k"].GetStringValue() != "v" { t.Fatalf("roundtrip mismatch") }
}

func TestProtoCodecPlainValues(t *testing.T) {
    c := Proto()
    b, err := c.Marshal([]any{"root/", "a.js", "A.B", map[string]any{"spaceid": 42}})
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    list, ok := out.([]any)
    if !ok || len(list) != 4 { t.Fatalf("want 4-tuple, got %#v", out) }
    args := list[3].(map[string]any)
    if args["spaceid"].(float64) != 42 { t.Fatalf("args mismatch: %#v", args) }
}

func TestRegistryLookup(t *testing.T) {
    r := NewRegistry()
    for _, ct := range []string{"application/json", "application/cbor", "application/x-protobuf"} {
        if r.Get(ct) == nil { t.Fatalf("missing codec %s", ct) }
    }
    if r.Get("text/plain") != nil { t.Fatalf("unexpected codec for text/plain") }
}

func TestCBORCodecStringifiesScalarKeys(t *testing.T) {
    c, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    in := map[string]any{"m": map[int]string{1: "a"}, "list": []map[uint8]bool{{7: true}}}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    want := map[string]any{"m": map[string]any{"1": "a"}, "list": []any{map[string]any{"7": true}}}
    if !reflect.DeepEqual(out, want) { t.Fatalf("got %#v, want %#v", out, want) }
}

func TestCodecsRejectCompositeMapKeys(t *testing.T) {
    cb, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    bad := map[string]any{"nested": map[[2]int]string{{1, 2}: "x"}}
    for _, c := range []Codec{cb, Proto()} {
        if _, err := c.Marshal(bad); err == nil {
            t.Fatalf("%s: expected error for array map key", c.ContentType())
        }
    }
}

func TestProtoCodecTypedCollections(t *testing.T) {
    c := Proto()
    in := map[string]any{"ids": []int{1, 2}, "radius": map[string]float32{"r": 2}, "keys": map[int]string{3: "c"}}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    want := map[string]any{"ids": []any{1.0, 2.0}, "radius": map[string]any{"r": 2.0}, "keys": map[string]any{"3": "c"}}
    if !reflect.DeepEqual(out, want) { t.Fatalf("got %#v, want %#v", out, want) }
}
