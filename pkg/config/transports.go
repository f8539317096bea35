package config

// ListenConfig is one endpoint a worker host accepts sessions on.
// Example YAML:
// host:
//   listen:
//     - kind: tcp
//       address: ":7710"
//     - kind: quic
//       address: ":7711"
type ListenConfig struct {
    Kind    string `mapstructure:"kind"`
    Address string `mapstructure:"address"`
}

// HostConfig configures katamesh-host.
type HostConfig struct {
    Listen []ListenConfig `mapstructure:"listen"`
}

// WorkersConfig controls how handles start their scripts.
// Example YAML:
// workers:
//   enabled: true
//   codec: cbor
//   spawn: tcp
//   address: "10.0.0.2:7710"
type WorkersConfig struct {
    // Enabled turns on concurrent workers; when false every handle runs its
    // script on the caller's goroutine.
    Enabled bool `mapstructure:"enabled"`
    // Codec: cbor, json or proto
    Codec string `mapstructure:"codec"`
    // Spawn: local, tcp or quic
    Spawn string `mapstructure:"spawn"`
    // Address of the katamesh-host for tcp and quic spawning
    Address string `mapstructure:"address"`
    // RootLocator is sent with every bootstrap; code locators are relative to it
    RootLocator string `mapstructure:"root_locator"`
}
