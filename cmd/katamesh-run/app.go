package main

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "sync/atomic"
    "time"

    "go.uber.org/zap"
    "gopkg.in/yaml.v3"

    "katamesh/pkg/channel"
    "katamesh/pkg/config"
    netstack "katamesh/pkg/core/netstack"
    "katamesh/pkg/memkv"
    "katamesh/pkg/namespace"
    "katamesh/pkg/observability"
    "katamesh/pkg/registry"
    _ "katamesh/pkg/scripts"
    "katamesh/pkg/worker"
)

// run starts the script, prints what it sends to out and returns the exit
// code. Every deferred teardown has run by the time it returns.
func run(opts Options, out, errOut io.Writer) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = fmt.Fprintf(errOut, "load config: %v\n", err)
        return 1
    }
    switch opts.Workers {
    case "":
    case "on":
        cfg.Workers.Enabled = true
    case "off":
        cfg.Workers.Enabled = false
    default:
        _, _ = fmt.Fprintln(errOut, "-workers must be on or off")
        return 2
    }
    if opts.Spawn != "" {
        cfg.Workers.Spawn = opts.Spawn
    }
    if opts.Addr != "" {
        cfg.Workers.Address = opts.Addr
    }

    args, err := parseYAML(opts.Args)
    if err != nil {
        _, _ = fmt.Fprintf(errOut, "parse -args: %v\n", err)
        return 2
    }
    var msg any
    if opts.Send != "" {
        if msg, err = parseYAML(opts.Send); err != nil {
            _, _ = fmt.Fprintf(errOut, "parse -send: %v\n", err)
            return 2
        }
    }

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = fmt.Fprintf(errOut, "setup logger: %v\n", err)
        return 1
    }
    defer func() { _ = logger.Sync() }()

    ctx, cancel := context.WithTimeout(context.Background(), opts.Wait+10*time.Second)
    defer cancel()

    kv := memkv.New(memkv.Options{Shards: cfg.Registry.Shards})
    defer kv.Close()
    tracker := registry.NewStore(kv, cfg.Registry.Retention)

    wopts, err := netstack.WorkerOptions(cfg.Workers, namespace.Default(), tracker, netstack.Options{})
    if err != nil {
        zap.L().Error("worker options", zap.Error(err))
        return 1
    }
    var failed atomic.Bool
    wopts = append(wopts, worker.WithErrorHook(func(e *worker.ScriptError) {
        zap.L().Error("worker failed", zap.String("worker", e.WorkerID), zap.Error(e))
        failed.Store(true)
        cancel()
    }))

    h, err := worker.New(ctx, opts.Locator, opts.Path, args, wopts...)
    if err != nil {
        zap.L().Error("new worker", zap.Error(err))
        return 1
    }
    defer func() {
        _ = h.Close()
        if left, ok := tracker.Retained(h.ID()); ok {
            _, _ = fmt.Fprintf(errOut, "worker %s record kept for %s\n", h.ID(), left.Round(time.Second))
        }
    }()

    ch := h.Channel()
    ch.Subscribe(func(_ channel.Channel, m any) {
        b, err := json.Marshal(m)
        if err != nil {
            _, _ = fmt.Fprintf(out, "%v\n", m)
            return
        }
        _, _ = fmt.Fprintln(out, string(b))
    })
    _, _ = fmt.Fprintf(errOut, "worker %s (%s) starting %s\n", h.ID(), h.Variant(), opts.Path)
    if err := h.Go(); err != nil {
        zap.L().Error("go", zap.Error(err))
        return 1
    }
    if msg != nil {
        if err := ch.Send(msg); err != nil {
            zap.L().Error("send", zap.Error(err))
            return 1
        }
    }

    select {
    case <-time.After(opts.Wait):
    case <-ctx.Done():
    }
    if rec, ok := tracker.Get(h.ID()); ok {
        _, _ = fmt.Fprintf(errOut, "worker %s state=%s\n", rec.WorkerID, rec.State)
    }
    if failed.Load() {
        return 1
    }
    return 0
}

func parseYAML(s string) (any, error) {
    if s == "" {
        return nil, nil
    }
    var v any
    if err := yaml.Unmarshal([]byte(s), &v); err != nil {
        return nil, err
    }
    return v, nil
}
