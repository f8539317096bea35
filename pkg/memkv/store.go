package memkv

import (
    "sort"
    "strings"
    "sync"
    "sync/atomic"
    "time"
)

// Options configures a Store.
type Options struct {
    Shards        int           // number of shards (default 64)
    SweepInterval time.Duration // how often expired keys are purged (default 1s)
}

func (o Options) withDefaults() Options {
    if o.Shards <= 0 {
        o.Shards = 64
    }
    if o.SweepInterval <= 0 {
        o.SweepInterval = time.Second
    }
    return o
}

// Store is the key/value store. Create with New, release with Close.
type Store struct {
    opts    Options
    shards  []shard
    closeCh chan struct{}
    once    sync.Once
    wg      sync.WaitGroup
    nowFn   func() time.Time

    mKeys    atomic.Int64
    mSets    atomic.Uint64
    mHits    atomic.Uint64
    mMisses  atomic.Uint64
    mDels    atomic.Uint64
    mExpired atomic.Uint64
}

type shard struct {
    mu sync.RWMutex
    m  map[string]*entry
}

type entry struct {
    val      []byte
    expireAt int64 // unix nano; 0 = never
}

func (e *entry) expired(now int64) bool { return e.expireAt != 0 && now >= e.expireAt }

func New(opts Options) *Store {
    opts = opts.withDefaults()
    s := &Store{
        opts:    opts,
        shards:  make([]shard, opts.Shards),
        closeCh: make(chan struct{}),
        nowFn:   time.Now,
    }
    for i := range s.shards {
        s.shards[i].m = make(map[string]*entry)
    }
    s.wg.Add(1)
    go s.sweeper()
    return s
}

// Close stops the sweeper. The store stays readable.
func (s *Store) Close() {
    s.once.Do(func() { close(s.closeCh) })
    s.wg.Wait()
}

func (s *Store) shardFor(key string) *shard {
    // FNV-1a 64
    var h uint64 = 1469598103934665603
    for i := 0; i < len(key); i++ {
        h ^= uint64(key[i])
        h *= 1099511628211
    }
    return &s.shards[int(h%uint64(len(s.shards)))]
}

func clone(b []byte) []byte { return append([]byte(nil), b...) }

func (s *Store) deadline(ttl time.Duration) int64 {
    if ttl <= 0 {
        return 0
    }
    return s.nowFn().Add(ttl).UnixNano()
}

// Set stores val under key. ttl <= 0 means no expiry. Reports whether the
// key was created rather than overwritten.
func (s *Store) Set(key string, val []byte, ttl time.Duration) bool {
    e := &entry{val: clone(val), expireAt: s.deadline(ttl)}
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.Lock()
    prev, existed := sh.m[key]
    created := !existed || prev.expired(now)
    sh.m[key] = e
    sh.mu.Unlock()
    if !existed {
        s.mKeys.Add(1)
    }
    s.mSets.Add(1)
    return created
}

// Get returns a copy of the value under key.
func (s *Store) Get(key string) ([]byte, bool) {
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.RLock()
    e, ok := sh.m[key]
    if !ok || e.expired(now) {
        sh.mu.RUnlock()
        s.mMisses.Add(1)
        return nil, false
    }
    v := clone(e.val)
    sh.mu.RUnlock()
    s.mHits.Add(1)
    return v, true
}

// Update replaces the value under key with fn(old) atomically. The TTL is
// kept. Reports false when the key is missing or expired.
func (s *Store) Update(key string, fn func(old []byte) []byte) bool {
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    e, ok := sh.m[key]
    if !ok || e.expired(now) {
        return false
    }
    e.val = clone(fn(clone(e.val)))
    return true
}

// Delete removes key. Reports whether a live key was removed.
func (s *Store) Delete(key string) bool {
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.Lock()
    e, ok := sh.m[key]
    if ok {
        delete(sh.m, key)
    }
    sh.mu.Unlock()
    if !ok {
        return false
    }
    s.mKeys.Add(-1)
    s.mDels.Add(1)
    return !e.expired(now)
}

// Expire sets a new TTL on key; ttl <= 0 removes the expiry.
func (s *Store) Expire(key string, ttl time.Duration) bool {
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    e, ok := sh.m[key]
    if !ok || e.expired(now) {
        return false
    }
    e.expireAt = s.deadline(ttl)
    return true
}

// TTL returns the remaining lifetime of key; 0 with ok=true means no expiry.
func (s *Store) TTL(key string) (time.Duration, bool) {
    now := s.nowFn().UnixNano()
    sh := s.shardFor(key)
    sh.mu.RLock()
    defer sh.mu.RUnlock()
    e, ok := sh.m[key]
    if !ok || e.expired(now) {
        return 0, false
    }
    if e.expireAt == 0 {
        return 0, true
    }
    return time.Duration(e.expireAt - now), true
}

// Keys returns the live keys with the given prefix, sorted.
func (s *Store) Keys(prefix string) []string {
    now := s.nowFn().UnixNano()
    var out []string
    for i := range s.shards {
        sh := &s.shards[i]
        sh.mu.RLock()
        for k, e := range sh.m {
            if strings.HasPrefix(k, prefix) && !e.expired(now) {
                out = append(out, k)
            }
        }
        sh.mu.RUnlock()
    }
    sort.Strings(out)
    return out
}

// Stats is a snapshot of store counters.
type Stats struct {
    Keys    int64
    Sets    uint64
    Hits    uint64
    Misses  uint64
    Dels    uint64
    Expired uint64
}

func (s *Store) Metrics() Stats {
    return Stats{
        Keys:    s.mKeys.Load(),
        Sets:    s.mSets.Load(),
        Hits:    s.mHits.Load(),
        Misses:  s.mMisses.Load(),
        Dels:    s.mDels.Load(),
        Expired: s.mExpired.Load(),
    }
}

func (s *Store) sweeper() {
    defer s.wg.Done()
    t := time.NewTicker(s.opts.SweepInterval)
    defer t.Stop()
    for {
        select {
        case <-s.closeCh:
            return
        case <-t.C:
            s.sweep()
        }
    }
}

func (s *Store) sweep() {
    now := s.nowFn().UnixNano()
    for i := range s.shards {
        sh := &s.shards[i]
        sh.mu.Lock()
        for k, e := range sh.m {
            if e.expired(now) {
                delete(sh.m, k)
                s.mKeys.Add(-1)
                s.mExpired.Add(1)
            }
        }
        sh.mu.Unlock()
    }
}
