package main

import (
    "context"
    "os"
    "os/signal"
    "strings"
    "syscall"

    "go.uber.org/zap"

    "katamesh/pkg/config"
    netstack "katamesh/pkg/core/netstack"
    "katamesh/pkg/memkv"
    "katamesh/pkg/namespace"
    "katamesh/pkg/observability"
    "katamesh/pkg/protocol"
    "katamesh/pkg/registry"
    _ "katamesh/pkg/scripts"
    "katamesh/pkg/worker"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return 1
    }
    if opts.Listen != "" {
        kind, addr, ok := strings.Cut(opts.Listen, "://")
        if !ok {
            _, _ = os.Stderr.WriteString("invalid -listen, want kind://address\n")
            return 2
        }
        cfg.Host.Listen = []config.ListenConfig{{Kind: strings.ToLower(kind), Address: addr}}
    }

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return 1
    }
    defer func() { _ = logger.Sync() }()

    zap.L().Info("katamesh-host started", zap.String("app", cfg.AppName))
    zap.L().Info("effective configuration", zap.Any("config", cfg))

    format, err := protocol.ParseFormat(cfg.Workers.Codec)
    if err != nil {
        zap.L().Error("bad codec", zap.Error(err))
        return 1
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    kv := memkv.New(memkv.Options{Shards: cfg.Registry.Shards})
    defer kv.Close()
    tracker := registry.NewStore(kv, cfg.Registry.Retention)

    ns := namespace.Default()
    zap.L().Info("script locators", zap.Strings("locators", ns.Locators()))
    host := worker.NewHost(ns, worker.HostFormat(format), worker.HostTracker(tracker))

    closer, mgr, err := netstack.StartFromConfig(ctx, cfg.Host.Listen, host)
    if err != nil {
        zap.L().Error("failed to start listeners", zap.Error(err))
        return 1
    }
    defer closer()

    zap.L().Info("host is running; press Ctrl+C to exit", zap.Int64("listeners", mgr.ActiveListeners()))
    <-ctx.Done()
    running := tracker.List(registry.Filter{State: registry.StateRunning})
    st := kv.Metrics()
    zap.L().Info("shutting down", zap.Int("running_workers", len(running)),
        zap.Int64("records", st.Keys), zap.Uint64("record_writes", st.Sets), zap.Uint64("records_expired", st.Expired))
    return 0
}
