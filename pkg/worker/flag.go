package worker

import "sync/atomic"

var enabled atomic.Bool

// Enabled reports whether new handles may use concurrent workers.
func Enabled() bool { return enabled.Load() }

// SetEnabled flips the process-wide switch. Handles already constructed keep
// the variant they were built with.
func SetEnabled(on bool) { enabled.Store(on) }
