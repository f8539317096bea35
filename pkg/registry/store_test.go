package registry

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "katamesh/pkg/memkv"
)

func newStore(t *testing.T, retention time.Duration) *Store {
    kv := memkv.New(memkv.Options{SweepInterval: 10 * time.Millisecond})
    t.Cleanup(kv.Close)
    return NewStore(kv, retention)
}

func TestPutTransitionGet(t *testing.T) {
    s := newStore(t, 0)
    s.Put(Record{WorkerID: "w1", CapabilityPath: "A.B", Variant: "fallback", State: StateConstructed})

    rec, ok := s.Get("w1")
    require.True(t, ok)
    require.Equal(t, StateConstructed, rec.State)
    require.NotZero(t, rec.CreatedUnixMs)

    require.True(t, s.Transition("w1", StateRunning, ""))
    require.True(t, s.Transition("w1", StateFailed, "boom"))
    rec, _ = s.Get("w1")
    require.Equal(t, StateFailed, rec.State)
    require.Equal(t, "boom", rec.LastError)

    require.False(t, s.Transition("missing", StateRunning, ""))
}

func TestListFilters(t *testing.T) {
    s := newStore(t, 0)
    s.Put(Record{WorkerID: "b", CapabilityPath: "A.B", Variant: "concurrent", State: StateRunning})
    s.Put(Record{WorkerID: "a", CapabilityPath: "A.B", Variant: "fallback", State: StateRunning})
    s.Put(Record{WorkerID: "c", CapabilityPath: "A.C", Variant: "fallback", State: StateArmed})

    all := s.List(Filter{})
    require.Len(t, all, 3)
    require.Equal(t, "a", all[0].WorkerID)

    require.Len(t, s.List(Filter{CapabilityPath: "A.B"}), 2)
    require.Len(t, s.List(Filter{Variant: "fallback", State: StateRunning}), 1)
}

func TestClosedRecordsExpire(t *testing.T) {
    s := newStore(t, 30*time.Millisecond)
    s.Put(Record{WorkerID: "w", State: StateRunning})
    require.True(t, s.Transition("w", StateClosed, ""))
    _, ok := s.Get("w")
    require.True(t, ok)
    require.Eventually(t, func() bool { _, ok := s.Get("w"); return !ok }, time.Second, 10*time.Millisecond)
}

func TestClosedRecordsRetained(t *testing.T) {
    s := newStore(t, time.Minute)
    s.Put(Record{WorkerID: "w", State: StateRunning})
    _, ok := s.Retained("w")
    require.False(t, ok, "running records do not expire")

    require.True(t, s.Transition("w", StateClosed, ""))
    left, ok := s.Retained("w")
    require.True(t, ok)
    require.Greater(t, left, time.Duration(0))
    require.LessOrEqual(t, left, time.Minute)
}

func TestClosedRecordsDroppedWithoutRetention(t *testing.T) {
    s := newStore(t, 0)
    s.Put(Record{WorkerID: "w", State: StateRunning})
    require.True(t, s.Transition("w", StateFailed, "boom"))
    rec, ok := s.Get("w")
    require.True(t, ok, "failed records stay until closed")
    require.Equal(t, "boom", rec.LastError)

    require.True(t, s.Transition("w", StateClosed, ""))
    _, ok = s.Get("w")
    require.False(t, ok)
    require.Empty(t, s.List(Filter{}))
}
