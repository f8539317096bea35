// Package memkv is a sharded, concurrency-safe in-memory key/value store
// with per-key TTLs. Values are byte slices and are copied on the way in
// and out, so callers may reuse their buffers.
//
// Expired keys are invisible to readers immediately and are removed by a
// background sweeper at Options.SweepInterval.
package memkv
