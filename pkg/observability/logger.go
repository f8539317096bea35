// Package observability contains logging setup for katamesh binaries.
package observability

import (
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "katamesh/pkg/config"
)

// SetupLogger builds a zap.Logger from the provided configuration, sets it as
// the global logger (library packages log through zap.L()), and redirects the
// stdlib log package. The caller should defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
    lvl := strings.ToLower(strings.TrimSpace(c.Level))
    if lvl == "warning" {
        lvl = "warn"
    }
    level, err := zapcore.ParseLevel(lvl)
    if err != nil {
        return nil, fmt.Errorf("log level: %w", err)
    }
    atom := zap.NewAtomicLevelAt(level)

    encCfg := encoderConfig(c.Development)
    var encoder zapcore.Encoder
    if strings.EqualFold(c.Format, "json") {
        encoder = zapcore.NewJSONEncoder(encCfg)
    } else {
        encoder = zapcore.NewConsoleEncoder(encCfg)
    }

    outs := c.Outputs
    if len(outs) == 0 {
        outs = []string{"stderr"}
    }
    cores := make([]zapcore.Core, 0, len(outs))
    for _, out := range outs {
        cores = append(cores, zapcore.NewCore(encoder, writerFor(out, c), atom))
    }

    opts := []zap.Option{
        zap.AddCaller(),
        zap.AddStacktrace(zap.ErrorLevel),
    }
    if c.Development {
        opts = append(opts, zap.Development())
    }

    logger := zap.New(zapcore.NewTee(cores...), opts...)
    zap.ReplaceGlobals(logger)
    _, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
    return logger, nil
}

func writerFor(out string, c config.LogConfig) zapcore.WriteSyncer {
    switch strings.ToLower(out) {
    case "stdout":
        return zapcore.AddSync(os.Stdout)
    case "stderr":
        return zapcore.AddSync(os.Stderr)
    }
    // file output; rotated only when enabled
    if c.Rotation.Enable {
        name := out
        if f := strings.TrimSpace(c.Rotation.Filename); f != "" {
            name = f
        }
        return zapcore.AddSync(&lumberjack.Logger{
            Filename:   name,
            MaxSize:    max(c.Rotation.MaxSizeMB, 10),
            MaxBackups: max(c.Rotation.MaxBackups, 1),
            MaxAge:     max(c.Rotation.MaxAgeDays, 7),
            Compress:   c.Rotation.Compress,
        })
    }
    if dir := filepath.Dir(out); dir != "." {
        _ = os.MkdirAll(dir, 0o755)
    }
    f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return zapcore.AddSync(os.Stderr)
    }
    return zapcore.AddSync(f)
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
    if dev {
        cfg := zap.NewDevelopmentEncoderConfig()
        cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return cfg
    }
    return zap.NewProductionEncoderConfig()
}
