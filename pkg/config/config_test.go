package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func writeConfig(t *testing.T, body string) string {
    t.Helper()
    p := filepath.Join(t.TempDir(), "katamesh.yaml")
    if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
        t.Fatal(err)
    }
    return p
}

func TestLoadDefaults(t *testing.T) {
    cfg, err := Load(writeConfig(t, "app_name: test\n"))
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.AppName != "test" {
        t.Fatalf("app_name = %q", cfg.AppName)
    }
    if cfg.Workers.Enabled {
        t.Fatalf("workers enabled by default")
    }
    if cfg.Workers.Codec != "cbor" || cfg.Workers.Spawn != "local" {
        t.Fatalf("workers = %+v", cfg.Workers)
    }
    if cfg.Registry.Retention != 5*time.Minute {
        t.Fatalf("retention = %v", cfg.Registry.Retention)
    }
    if len(cfg.Host.Listen) != 1 || cfg.Host.Listen[0].Kind != "tcp" {
        t.Fatalf("host.listen = %+v", cfg.Host.Listen)
    }
}

func TestLoadFileAndNormalize(t *testing.T) {
    p := writeConfig(t, `
workers:
  enabled: true
  codec: JSON
  spawn: QUIC
  address: "127.0.0.1:7711"
  root_locator: scripts
host:
  listen:
    - kind: " QUIC "
      address: ":7711"
registry:
  retention: 30s
`)
    cfg, err := Load(p)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    w := cfg.Workers
    if !w.Enabled || w.Codec != "json" || w.Spawn != "quic" || w.RootLocator != "scripts" {
        t.Fatalf("workers = %+v", w)
    }
    if cfg.Host.Listen[0].Kind != "quic" {
        t.Fatalf("listen kind = %q", cfg.Host.Listen[0].Kind)
    }
    if cfg.Registry.Retention != 30*time.Second {
        t.Fatalf("retention = %v", cfg.Registry.Retention)
    }
}

func TestLoadEnvOverride(t *testing.T) {
    t.Setenv("KATAMESH_WORKERS_ENABLED", "true")
    t.Setenv("KATAMESH_LOG_LEVEL", "debug")
    cfg, err := Load(writeConfig(t, "app_name: env\n"))
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if !cfg.Workers.Enabled || cfg.Log.Level != "debug" {
        t.Fatalf("env not applied: %+v %+v", cfg.Workers, cfg.Log)
    }
}

func TestLoadRejectsInvalid(t *testing.T) {
    for name, body := range map[string]string{
        "level":   "log:\n  level: loud\n",
        "codec":   "workers:\n  codec: xml\n",
        "spawn":   "workers:\n  spawn: ssh\n",
        "address": "workers:\n  spawn: tcp\n",
        "listen":  "host:\n  listen:\n    - address: \":1\"\n",
    } {
        t.Run(name, func(t *testing.T) {
            if _, err := Load(writeConfig(t, body)); err == nil {
                t.Fatalf("expected error")
            }
        })
    }
}
