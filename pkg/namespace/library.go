package namespace

import (
    "fmt"
    "path"
    "strings"
)

// Provide declares the library behind a code locator. Providing the same
// locator twice replaces the earlier library if it has not been included yet.
func (ns *Namespace) Provide(locator string, lib Library) {
    ns.mu.Lock(); defer ns.mu.Unlock()
    ns.libs[cleanLocator(locator)] = lib
}

// Include loads the library behind locator into the namespace. Loading is
// idempotent: a second Include of the same locator does nothing. An empty
// locator loads nothing, for constructors registered directly.
func (ns *Namespace) Include(locator string) error {
    key := cleanLocator(locator)
    if key == "" {
        return nil
    }
    ns.mu.Lock()
    if ns.included[key] {
        ns.mu.Unlock()
        return nil
    }
    lib, ok := ns.libs[key]
    if !ok {
        ns.mu.Unlock()
        return fmt.Errorf("%w: %s", ErrUnknownLocator, locator)
    }
    ns.included[key] = true
    ns.mu.Unlock()

    if err := lib(ns); err != nil {
        ns.mu.Lock()
        delete(ns.included, key)
        ns.mu.Unlock()
        return fmt.Errorf("include %s: %w", locator, err)
    }
    return nil
}

// Locators lists the provided code locators.
func (ns *Namespace) Locators() []string {
    ns.mu.RLock(); defer ns.mu.RUnlock()
    out := make([]string, 0, len(ns.libs))
    for k := range ns.libs {
        out = append(out, k)
    }
    return out
}

// JoinLocator resolves a code locator against a root locator, the way a
// worker host turns (root, code) from a bootstrap tuple into a library key.
// Absolute code locators ignore the root.
func JoinLocator(root, code string) string {
    if root == "" || strings.HasPrefix(code, "/") {
        return cleanLocator(code)
    }
    return cleanLocator(path.Join(root, code))
}

func cleanLocator(l string) string {
    l = strings.TrimSpace(l)
    if l == "" {
        return ""
    }
    return strings.TrimPrefix(path.Clean(l), "/")
}
