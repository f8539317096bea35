package channel

import "sync"

// Direct is the in-process endpoint used when workers run on the caller's
// goroutine. Nothing is copied: the opposing listeners see the sent value.
type Direct struct {
    Listeners

    mu   sync.RWMutex
    peer *Direct
}

// NewDirect returns an endpoint with no opposing side yet. Sending on it
// fails with ErrNotConnected until NewDirectPeer pairs it.
func NewDirect() *Direct { return &Direct{} }

// NewDirectPeer creates the opposing endpoint of other and pairs the two.
func NewDirectPeer(other *Direct) *Direct {
    d := &Direct{peer: other}
    other.mu.Lock()
    other.peer = d
    other.mu.Unlock()
    return d
}

// Peer returns the opposing endpoint, or nil.
func (d *Direct) Peer() *Direct {
    d.mu.RLock(); defer d.mu.RUnlock()
    return d.peer
}

// Send runs the opposing endpoint's listeners on the calling goroutine.
func (d *Direct) Send(msg any) error {
    p := d.Peer()
    if p == nil {
        return ErrNotConnected
    }
    p.Call(p, msg)
    return nil
}

func (d *Direct) Mode() DeliveryMode { return Synchronous }
