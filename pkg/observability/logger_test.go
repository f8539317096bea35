package observability

import (
    "os"
    "path/filepath"
    "strings"
    "testing"

    "go.uber.org/zap"

    "katamesh/pkg/config"
)

func TestSetupLoggerWritesFile(t *testing.T) {
    prev := zap.L()
    t.Cleanup(func() { zap.ReplaceGlobals(prev) })

    out := filepath.Join(t.TempDir(), "logs", "run.log")
    log, err := SetupLogger(config.LogConfig{Level: "debug", Format: "json", Outputs: []string{out}})
    if err != nil {
        t.Fatalf("setup: %v", err)
    }
    zap.L().Named("worker").Debug("new webworker", zap.String("path", "Sirikata.CameraScript"))
    _ = log.Sync()

    b, err := os.ReadFile(out)
    if err != nil {
        t.Fatalf("read: %v", err)
    }
    if !strings.Contains(string(b), `"msg":"new webworker"`) || !strings.Contains(string(b), "Sirikata.CameraScript") {
        t.Fatalf("unexpected log contents: %s", b)
    }
}

func TestSetupLoggerRejectsBadLevel(t *testing.T) {
    if _, err := SetupLogger(config.LogConfig{Level: "loud"}); err == nil {
        t.Fatalf("expected error")
    }
}
