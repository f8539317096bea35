package netstack

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "katamesh/pkg/channel"
    "katamesh/pkg/config"
    "katamesh/pkg/memkv"
    "katamesh/pkg/namespace"
    "katamesh/pkg/registry"
    "katamesh/pkg/scripts"
    "katamesh/pkg/transports"
    "katamesh/pkg/worker"
)

func TestStartFromConfigServesRemoteWorkers(t *testing.T) {
    t.Cleanup(func() { worker.SetEnabled(false) })
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    ns := namespace.New()
    scripts.Install(ns)
    kv := memkv.New(memkv.Options{})
    defer kv.Close()
    tracker := registry.NewStore(kv, time.Minute)

    closer, mgr, err := StartFromConfig(ctx, []config.ListenConfig{{Kind: "mem", Address: "netstack-test"}}, worker.NewHost(ns, worker.HostTracker(tracker)))
    require.NoError(t, err)
    defer closer()
    require.EqualValues(t, 1, mgr.ActiveListeners())

    opts, err := WorkerOptions(config.WorkersConfig{Enabled: true, Codec: "json", Spawn: "mem", Address: "netstack-test"}, ns, tracker, Options{})
    require.NoError(t, err)
    require.True(t, worker.Enabled())

    h, err := worker.New(ctx, scripts.EchoLocator, "Kata.EchoScript", nil, append(opts, worker.WithErrorHook(func(e *worker.ScriptError) { t.Errorf("script error: %v", e) }))...)
    require.NoError(t, err)
    defer h.Close()
    require.Equal(t, worker.VariantConcurrent, h.Variant())

    got := make(chan any, 1)
    h.Channel().Subscribe(func(_ channel.Channel, msg any) { got <- msg })
    require.NoError(t, h.Go())
    require.NoError(t, h.Channel().Send(map[string]any{"msg": "ping"}))
    select {
    case v := <-got:
        require.Equal(t, map[string]any{"msg": "ping"}, v)
    case <-time.After(2 * time.Second):
        t.Fatal("no echo")
    }
}

func TestStartFromConfigFailsWhenNothingListens(t *testing.T) {
    _, _, err := StartFromConfig(context.Background(), []config.ListenConfig{{Kind: "carrier-pigeon"}}, worker.NewHost(namespace.New()))
    var unknown transports.ErrUnknownKind
    require.ErrorAs(t, err, &unknown)
}

func TestRetrySpawnerGivesUp(t *testing.T) {
    sp, err := NewSpawner(config.WorkersConfig{Spawn: "mem", Address: "nobody-home"}, nil,
        Options{BackoffInitial: time.Millisecond, Attempts: 3})
    require.NoError(t, err)
    _, err = sp.Spawn(context.Background())
    require.ErrorContains(t, err, "after 3 attempts")
}
