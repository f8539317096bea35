// Package worker starts scripts in an isolated execution context and hands
// the caller a channel to talk to them.
//
// A Handle is created, its Channel subscribed to, and then started with Go.
// Nothing runs until Go: a script may send messages from its constructor,
// and those are only seen by listeners that were already subscribed.
//
// When concurrent workers are enabled (SetEnabled) and a Spawner is
// available, the script runs in its own goroutine or on a remote host and
// messages cross a serializing Port. Otherwise the script is constructed on
// the caller's goroutine at Go and talks over a synchronous Direct pair.
package worker
