package config

import (
	"time"

	"github.com/google/uuid"
)

// ApplyDefaults fills any unspecified fields with sensible defaults,
// mirroring the teacher's pkg/config.ApplyDefaults per-section structure.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyTransportDefaults(&cfg.Transport)
	applySessionDefaults(&cfg.Session)
	applyFramingDefaults(&cfg.Framing)
	applyIOLoopDefaults(&cfg.IOLoop)
	applyAdminDefaults(&cfg.Admin)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	if cfg.Magic == "" {
		// Generated, not hardcoded: a stable default magic would let any
		// local process impersonate the SSH subsystem's adaptor. Operators
		// deploying via cmd/netconfd init get one written to their config
		// file instead of relying on this fallback.
		cfg.Magic = uuid.NewString()
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.FreeListCap == 0 {
		cfg.FreeListCap = 32
	}
	if cfg.MaxBuffers == 0 {
		cfg.MaxBuffers = 64
	}
	if cfg.CacheTimeout == 0 {
		cfg.CacheTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.Lifetime == 0 {
		cfg.Lifetime = 24 * time.Hour
	}
}

func applyFramingDefaults(cfg *FramingConfig) {
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = 16 << 20 // 16MB
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 16 << 10 // 16KB
	}
}

func applyIOLoopDefaults(cfg *IOLoopConfig) {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ReadChunkSize == 0 {
		cfg.ReadChunkSize = 16 << 10
	}
	if cfg.MaxScatterBuffers == 0 {
		cfg.MaxScatterBuffers = 16
	}
	if cfg.MaxScatterBytes == 0 {
		cfg.MaxScatterBytes = 256 << 10
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8337"
	}
}

// Default returns a Config with every default applied and no config file
// on disk, used when Load finds nothing to read.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
