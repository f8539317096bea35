// Package namespace resolves dotted capability paths ("Sirikata.CameraScript")
// to script constructors, and records which code locators contribute them.
package namespace

import (
    "errors"
    "fmt"
    "runtime"
    "sort"
    "strings"
    "sync"

    "github.com/agnivade/levenshtein"

    "katamesh/pkg/channel"
)

// Constructor builds a script bound to ch. The returned value is owned by
// the caller; the namespace keeps no reference to it.
type Constructor func(ch channel.Channel, args any) (any, error)

// Library registers what loading one code locator contributes.
type Library func(ns *Namespace) error

var (
    ErrDuplicate      = errors.New("namespace: path already registered")
    ErrEmptyPath      = errors.New("namespace: empty path")
    ErrUnknownLocator = errors.New("namespace: unknown code locator")
)

// ResolveError reports the first path component that could not be found.
type ResolveError struct {
    Path       string
    Missing    string
    Suggestion string
}

func (e *ResolveError) Error() string {
    msg := e.Path + " is undefined"
    if e.Missing != "" && e.Missing != e.Path {
        msg += " (no " + e.Missing + ")"
    }
    if e.Suggestion != "" {
        msg += "; did you mean " + e.Suggestion + "?"
    }
    return msg
}

// Entry is a resolved constructor with the place it was registered.
type Entry struct {
    Path string
    New  Constructor
    File string
    Line int
}

type node struct {
    children map[string]*node
    entry    *Entry
}

// Namespace is a tree of named nodes; leaves carry constructors.
type Namespace struct {
    mu       sync.RWMutex
    root     *node
    libs     map[string]Library
    included map[string]bool
}

func New() *Namespace {
    return &Namespace{root: &node{}, libs: make(map[string]Library), included: make(map[string]bool)}
}

var defaultNS = New()

// Default returns the process-wide root namespace.
func Default() *Namespace { return defaultNS }

func split(path string) ([]string, error) {
    path = strings.TrimSpace(path)
    if path == "" {
        return nil, ErrEmptyPath
    }
    parts := strings.Split(path, ".")
    for _, p := range parts {
        if p == "" {
            return nil, fmt.Errorf("namespace: empty component in %q", path)
        }
    }
    return parts, nil
}

// Register binds path to fn, creating intermediate nodes.
func (ns *Namespace) Register(path string, fn Constructor) error {
    parts, err := split(path)
    if err != nil {
        return err
    }
    if fn == nil {
        return fmt.Errorf("namespace: nil constructor for %s", path)
    }
    _, file, line, _ := runtime.Caller(1)
    ns.mu.Lock(); defer ns.mu.Unlock()
    n := ns.root
    for _, p := range parts {
        if n.children == nil {
            n.children = make(map[string]*node)
        }
        c := n.children[p]
        if c == nil {
            c = &node{}
            n.children[p] = c
        }
        n = c
    }
    if n.entry != nil {
        return fmt.Errorf("%w: %s", ErrDuplicate, path)
    }
    n.entry = &Entry{Path: strings.Join(parts, "."), New: fn, File: file, Line: line}
    return nil
}

// MustRegister is Register that panics, for package-level library setup.
func (ns *Namespace) MustRegister(path string, fn Constructor) {
    if err := ns.Register(path, fn); err != nil {
        panic(err)
    }
}

// Resolve walks path one component at a time from the root.
func (ns *Namespace) Resolve(path string) (Entry, error) {
    parts, err := split(path)
    if err != nil {
        return Entry{}, err
    }
    ns.mu.RLock()
    n := ns.root
    for i, p := range parts {
        n = n.children[p]
        if n == nil {
            ns.mu.RUnlock()
            return Entry{}, &ResolveError{Path: path, Missing: strings.Join(parts[:i+1], "."), Suggestion: ns.suggest(path)}
        }
    }
    e := n.entry
    ns.mu.RUnlock()
    if e == nil {
        return Entry{}, &ResolveError{Path: path, Missing: path, Suggestion: ns.suggest(path)}
    }
    return *e, nil
}

// Paths lists every registered constructor path, sorted.
func (ns *Namespace) Paths() []string {
    ns.mu.RLock(); defer ns.mu.RUnlock()
    return ns.pathsLocked()
}

func (ns *Namespace) pathsLocked() []string {
    var out []string
    var walk func(prefix string, n *node)
    walk = func(prefix string, n *node) {
        if n.entry != nil {
            out = append(out, prefix)
        }
        for name, c := range n.children {
            p := name
            if prefix != "" {
                p = prefix + "." + name
            }
            walk(p, c)
        }
    }
    walk("", ns.root)
    sort.Strings(out)
    return out
}

// suggest returns the closest registered path when it is plausibly a typo.
func (ns *Namespace) suggest(path string) string {
    best, bestDist := "", len(path)/3+1
    for _, p := range ns.pathsLocked() {
        if d := levenshtein.ComputeDistance(strings.ToLower(path), strings.ToLower(p)); d < bestDist {
            best, bestDist = p, d
        }
    }
    return best
}
