// Package scripts holds the sample scripts a worker can run. Each script
// is reachable by a capability path once its code locator is included.
package scripts

import (
    "go.uber.org/zap"

    "katamesh/pkg/channel"
    "katamesh/pkg/namespace"
)

// Code locators, relative to the script root.
const (
    BasicLocator  = "sirikata/scripts/basic"
    CameraLocator = "sirikata/scripts/camera"
    EchoLocator   = "kata/scripts/echo"
)

// DefaultSpace is the space a camera attaches to when none is configured.
var DefaultSpace = "12345678-1111-1111-1111-defa01759ace"

// ProximityRadius is the query radius a camera asks for.
const ProximityRadius = 1.0e8

// Install makes the sample locators available in ns.
func Install(ns *namespace.Namespace) {
    ns.Provide(BasicLocator, func(ns *namespace.Namespace) error {
        return ns.Register("Sirikata.BasicScript", NewBasic)
    })
    ns.Provide(CameraLocator, func(ns *namespace.Namespace) error {
        if err := ns.Include(BasicLocator); err != nil {
            return err
        }
        return ns.Register("Sirikata.CameraScript", NewCamera)
    })
    ns.Provide(EchoLocator, func(ns *namespace.Namespace) error {
        return ns.Register("Kata.EchoScript", NewEcho)
    })
}

func init() { Install(namespace.Default()) }

// Basic subscribes to its channel and logs what it receives.
type Basic struct {
    ch   channel.Channel
    args map[string]any
    log  *zap.Logger
}

func NewBasic(ch channel.Channel, args any) (any, error) {
    return newBasic(ch, args), nil
}

func newBasic(ch channel.Channel, args any) *Basic {
    b := &Basic{ch: ch, args: argMap(args), log: zap.L().Named("script")}
    ch.Subscribe(b.ProcessMessage)
    return b
}

// ProcessMessage handles one inbound message.
func (b *Basic) ProcessMessage(_ channel.Channel, msg any) {
    b.log.Debug("script message", zap.Any("msg", msg))
}

// Camera announces itself and asks for a proximity query while it is being
// constructed, so only listeners subscribed before Go see both messages.
type Camera struct {
    *Basic
}

func NewCamera(ch channel.Channel, args any) (any, error) {
    c := &Camera{Basic: newBasic(ch, args)}
    if err := ch.Send(map[string]any{"msg": "Camera", "primary": "true", "spaceid": DefaultSpace}); err != nil {
        return nil, err
    }
    if err := ch.Send(map[string]any{"msg": "Proximity", "spaceid": c.args["spaceid"], "radius": ProximityRadius}); err != nil {
        return nil, err
    }
    return c, nil
}

// Echo sends every message it receives back unchanged.
type Echo struct {
    ch channel.Channel
}

func NewEcho(ch channel.Channel, _ any) (any, error) {
    e := &Echo{ch: ch}
    ch.Subscribe(func(from channel.Channel, msg any) {
        if err := from.Send(msg); err != nil {
            zap.L().Named("script").Warn("echo failed", zap.Error(err))
        }
    })
    return e, nil
}

// argMap accepts the map shapes args arrive in, directly or decoded.
func argMap(args any) map[string]any {
    switch m := args.(type) {
    case map[string]any:
        return m
    case map[any]any:
        out := make(map[string]any, len(m))
        for k, v := range m {
            if s, ok := k.(string); ok {
                out[s] = v
            }
        }
        return out
    default:
        return map[string]any{}
    }
}
