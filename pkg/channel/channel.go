// Package channel provides the message endpoints a parent uses to talk to a
// worker. Two variants share one interface:
//
//   - Direct pairs two in-process endpoints. Send invokes the opposing
//     endpoint's listeners before returning, and passes values by reference.
//   - Port runs over a transport.Stream. Send serializes the payload and
//     listeners are invoked later, from the port's read goroutine.
//
// Neither variant buffers for late subscribers: a message is delivered to
// the listeners subscribed when it arrives, and never again.
package channel

import (
    "errors"
    "sync"
)

// DeliveryMode tells callers when listeners run relative to Send.
type DeliveryMode int

const (
    // Synchronous: the opposing listeners have run when Send returns.
    Synchronous DeliveryMode = iota + 1
    // Asynchronous: the opposing listeners run on another goroutine, never
    // inside the Send call.
    Asynchronous
)

func (m DeliveryMode) String() string {
    switch m {
    case Synchronous:
        return "synchronous"
    case Asynchronous:
        return "asynchronous"
    default:
        return "unknown"
    }
}

var (
    ErrNotConnected   = errors.New("channel: no opposing endpoint")
    ErrClosed         = errors.New("channel: closed")
    ErrUnserializable = errors.New("channel: payload cannot cross the port")
)

// Listener receives each inbound message together with the channel it
// arrived on, so it can reply.
type Listener func(ch Channel, msg any)

// Subscription identifies a registered listener.
type Subscription uint64

// Channel is one endpoint of a bidirectional message channel.
type Channel interface {
    Subscribe(Listener) Subscription
    Unsubscribe(Subscription) bool
    Send(msg any) error
    Mode() DeliveryMode
}

type entry struct {
    id Subscription
    fn Listener
}

// Listeners is the listener registry shared by both variants. Listeners are
// invoked in subscription order. The zero value is ready to use.
type Listeners struct {
    mu      sync.Mutex
    next    Subscription
    entries []entry
}

func (l *Listeners) Subscribe(fn Listener) Subscription {
    l.mu.Lock(); defer l.mu.Unlock()
    l.next++
    l.entries = append(l.entries, entry{id: l.next, fn: fn})
    return l.next
}

func (l *Listeners) Unsubscribe(id Subscription) bool {
    l.mu.Lock(); defer l.mu.Unlock()
    for i, e := range l.entries {
        if e.id == id {
            l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
            return true
        }
    }
    return false
}

// Len returns the number of subscribed listeners.
func (l *Listeners) Len() int {
    l.mu.Lock(); defer l.mu.Unlock()
    return len(l.entries)
}

// Call delivers msg to a snapshot of the current listeners. Listeners added
// or removed while Call runs take effect for the next message.
func (l *Listeners) Call(ch Channel, msg any) {
    l.mu.Lock()
    snap := l.entries
    l.mu.Unlock()
    for _, e := range snap {
        e.fn(ch, msg)
    }
}
