package memkv

import (
    "testing"
    "time"
)

func TestSetGetCopies(t *testing.T) {
    s := New(Options{})
    defer s.Close()

    buf := []byte("abc")
    if created := s.Set("k1", buf, 0); !created {
        t.Fatalf("expected created=true on first Set")
    }
    buf[0] = 'X'
    v, ok := s.Get("k1")
    if !ok || string(v) != "abc" {
        t.Fatalf("Get mismatch: ok=%v v=%q", ok, v)
    }
    // modifying the returned copy must not affect the store
    v[0] = 'Y'
    v2, _ := s.Get("k1")
    if string(v2) != "abc" {
        t.Fatalf("Get after modify copy mismatch: %q", v2)
    }
    if created := s.Set("k1", []byte("d"), 0); created {
        t.Fatalf("expected created=false on overwrite")
    }
}

func TestUpdateAndDelete(t *testing.T) {
    s := New(Options{})
    defer s.Close()

    if s.Update("missing", func(b []byte) []byte { return b }) {
        t.Fatalf("update of missing key reported true")
    }
    s.Set("n", []byte("1"), 0)
    if !s.Update("n", func(b []byte) []byte { return append(b, '2') }) {
        t.Fatalf("update failed")
    }
    if v, _ := s.Get("n"); string(v) != "12" {
        t.Fatalf("update result %q", v)
    }
    if !s.Delete("n") || s.Delete("n") {
        t.Fatalf("delete should succeed once")
    }
    if st := s.Metrics(); st.Keys != 0 || st.Dels != 1 {
        t.Fatalf("metrics after delete: %+v", st)
    }
}

func TestExpireTTL(t *testing.T) {
    s := New(Options{SweepInterval: 10 * time.Millisecond})
    defer s.Close()

    s.Set("k3", []byte("v"), 50*time.Millisecond)
    if _, ok := s.Get("k3"); !ok {
        t.Fatalf("expected key present before TTL")
    }
    if d, ok := s.TTL("k3"); !ok || d <= 0 {
        t.Fatalf("TTL before expiry: %v %v", d, ok)
    }
    time.Sleep(120 * time.Millisecond)
    if _, ok := s.Get("k3"); ok {
        t.Fatalf("expected key expired")
    }
    if _, ok := s.TTL("k3"); ok {
        t.Fatalf("expected TTL to report missing after expiry")
    }
    if st := s.Metrics(); st.Expired == 0 {
        t.Fatalf("expected Expired > 0, got %v", st.Expired)
    }
}

func TestExpireClearsAndSetsTTL(t *testing.T) {
    s := New(Options{})
    defer s.Close()

    s.Set("k", []byte("v"), time.Hour)
    if !s.Expire("k", 0) {
        t.Fatalf("expire failed")
    }
    if d, ok := s.TTL("k"); !ok || d != 0 {
        t.Fatalf("want no expiry, got %v %v", d, ok)
    }
    if s.Expire("nope", time.Second) {
        t.Fatalf("expire on missing key reported true")
    }
}

func TestKeysPrefix(t *testing.T) {
    s := New(Options{Shards: 4})
    defer s.Close()

    for _, k := range []string{"w:2", "w:1", "x:1"} {
        s.Set(k, nil, 0)
    }
    got := s.Keys("w:")
    if len(got) != 2 || got[0] != "w:1" || got[1] != "w:2" {
        t.Fatalf("Keys mismatch: %v", got)
    }
}
