// Package registry tracks worker contexts: what they run, which variant they
// use and where they are in their lifecycle.
package registry

import (
    "encoding/json"
    "strings"
    "time"

    "go.uber.org/zap"

    "katamesh/pkg/memkv"
)

// Lifecycle states recorded for a worker.
const (
    StateConstructed = "constructed"
    StateArmed       = "armed"
    StateRunning     = "running"
    StateFailed      = "failed"
    StateClosed      = "closed"
)

// Record describes one worker context.
type Record struct {
    WorkerID       string `json:"worker_id"`
    CodeLocator    string `json:"code_locator"`
    CapabilityPath string `json:"capability_path"`
    Variant        string `json:"variant"`
    State          string `json:"state"`
    LastError      string `json:"last_error,omitempty"`
    CreatedUnixMs  int64  `json:"created_unix_ms"`
    UpdatedUnixMs  int64  `json:"updated_unix_ms"`
}

// Store keeps worker records in memkv. Closed records are kept for
// Retention so they still show up in listings shortly after shutdown; with
// no retention they are dropped as soon as the worker closes.
type Store struct {
    kv        *memkv.Store
    retention time.Duration
}

func NewStore(kv *memkv.Store, retention time.Duration) *Store {
    return &Store{kv: kv, retention: retention}
}

func keyWorker(id string) string { return "reg:worker:" + id }

// Put creates or replaces a record.
func (s *Store) Put(rec Record) {
    id := strings.TrimSpace(rec.WorkerID)
    if id == "" {
        return
    }
    now := time.Now().UnixMilli()
    if rec.CreatedUnixMs == 0 {
        rec.CreatedUnixMs = now
    }
    rec.UpdatedUnixMs = now
    b, _ := json.Marshal(rec)
    s.kv.Set(keyWorker(id), b, 0)
    zap.L().Debug("worker recorded", zap.String("worker", id), zap.String("path", rec.CapabilityPath), zap.String("variant", rec.Variant))
}

// Transition moves a worker to state, recording errMsg when non-empty.
// Closed and failed records start their retention countdown.
func (s *Store) Transition(id, state, errMsg string) bool {
    ok := s.kv.Update(keyWorker(id), func(old []byte) []byte {
        var rec Record
        if err := json.Unmarshal(old, &rec); err != nil {
            return old
        }
        rec.State = state
        if errMsg != "" {
            rec.LastError = errMsg
        }
        rec.UpdatedUnixMs = time.Now().UnixMilli()
        b, _ := json.Marshal(rec)
        return b
    })
    if !ok {
        return false
    }
    switch {
    case state != StateClosed && state != StateFailed:
    case s.retention > 0:
        s.kv.Expire(keyWorker(id), s.retention)
    case state == StateClosed:
        s.Remove(id)
    }
    return true
}

// Get returns the record for id.
func (s *Store) Get(id string) (Record, bool) {
    b, ok := s.kv.Get(keyWorker(id))
    if !ok {
        return Record{}, false
    }
    var rec Record
    if err := json.Unmarshal(b, &rec); err != nil {
        return Record{}, false
    }
    return rec, true
}

// Remove drops the record for id.
func (s *Store) Remove(id string) { s.kv.Delete(keyWorker(id)) }

// Retained reports how long a finished record has left before it expires.
// ok is false when the record is gone or never expires.
func (s *Store) Retained(id string) (left time.Duration, ok bool) {
    d, found := s.kv.TTL(keyWorker(id))
    if !found || d <= 0 {
        return 0, false
    }
    return d, true
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
    State          string
    CapabilityPath string
    Variant        string
}

func (f Filter) match(r Record) bool {
    return (f.State == "" || f.State == r.State) &&
        (f.CapabilityPath == "" || f.CapabilityPath == r.CapabilityPath) &&
        (f.Variant == "" || f.Variant == r.Variant)
}

// List returns matching records ordered by worker id.
func (s *Store) List(f Filter) []Record {
    var out []Record
    for _, k := range s.kv.Keys("reg:worker:") {
        rec, ok := s.Get(strings.TrimPrefix(k, "reg:worker:"))
        if ok && f.match(rec) {
            out = append(out, rec)
        }
    }
    return out
}
