// Package config provides YAML-based configuration loading for katamesh.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the process
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Workers controls handle construction
    Workers WorkersConfig `mapstructure:"workers"`

    // Host lists the endpoints katamesh-host serves worker contexts on
    Host HostConfig `mapstructure:"host"`

    // Registry controls the worker tracker
    Registry RegistryConfig `mapstructure:"registry"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// RegistryConfig controls how long finished workers stay listed.
type RegistryConfig struct {
    Retention time.Duration `mapstructure:"retention"`
    Shards    int           `mapstructure:"shards"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "katamesh",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stderr"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/katamesh.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Workers: WorkersConfig{
            Enabled: false,
            Codec:   "cbor",
            Spawn:   "local",
        },
        Host: HostConfig{
            Listen: []ListenConfig{{Kind: "tcp", Address: ":7710"}},
        },
        Registry: RegistryConfig{Retention: 5 * time.Minute, Shards: 16},
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix KATAMESH and `.`/`-` are replaced with `_`.
// Example: KATAMESH_WORKERS_ENABLED=true
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("KATAMESH")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("workers.enabled", cfg.Workers.Enabled)
    v.SetDefault("workers.codec", cfg.Workers.Codec)
    v.SetDefault("workers.spawn", cfg.Workers.Spawn)
    v.SetDefault("workers.address", cfg.Workers.Address)
    v.SetDefault("workers.root_locator", cfg.Workers.RootLocator)
    v.SetDefault("host.listen", cfg.Host.Listen)
    v.SetDefault("registry.retention", cfg.Registry.Retention)
    v.SetDefault("registry.shards", cfg.Registry.Shards)

    if path == "" {
        if envPath := os.Getenv("KATAMESH_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `katamesh`
        v.SetConfigName("katamesh")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".katamesh"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stderr"}
    }

    w := &c.Workers
    w.Codec = strings.ToLower(strings.TrimSpace(w.Codec))
    switch w.Codec {
    case "":
        w.Codec = "cbor"
    case "cbor", "json", "proto":
    default:
        return fmt.Errorf("invalid workers.codec: %q", w.Codec)
    }
    w.Spawn = strings.ToLower(strings.TrimSpace(w.Spawn))
    switch w.Spawn {
    case "":
        w.Spawn = "local"
    case "local":
    case "tcp", "quic":
        if strings.TrimSpace(w.Address) == "" {
            return fmt.Errorf("workers.address is required for %s spawning", w.Spawn)
        }
    default:
        return fmt.Errorf("invalid workers.spawn: %q", w.Spawn)
    }

    for i := range c.Host.Listen {
        l := &c.Host.Listen[i]
        l.Kind = strings.ToLower(strings.TrimSpace(l.Kind))
        if l.Kind == "" {
            return fmt.Errorf("host.listen[%d]: kind is required", i)
        }
    }
    if c.Registry.Shards <= 0 {
        c.Registry.Shards = 16
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
