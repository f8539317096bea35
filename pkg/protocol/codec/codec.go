// Package codec holds the payload serializations a port channel can use.
// Every codec must reject values that cannot cross a context boundary
// (functions, channels, unexported struct state) with an error.
package codec

// Codec defines a simple interface for marshaling typed messages.
type Codec interface {
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Registry maps content types to codecs.
type Registry struct { byType map[string]Codec }

// NewRegistry constructs a registry preloaded with the built-in codecs.
// CBOR construction cannot fail with the fixed options used here; if it ever
// does, the registry simply lacks it and callers fall back to JSON.
func NewRegistry() *Registry {
    r := &Registry{byType: make(map[string]Codec)}
    r.Register(JSON())
    r.Register(Proto())
    if c, err := CBOR(); err == nil {
        r.Register(c)
    }
    return r
}

// Register adds a codec, replacing one with the same content type.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }
