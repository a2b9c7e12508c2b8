// Package config loads and validates netconfd's static configuration: the
// socket path and magic token the transport adaptor dials (spec.md §6),
// buffer pool and session resource caps (spec.md §4.A, §4.B), the
// multiplexer's scheduling knobs (spec.md §4.C), and the ambient
// logging/telemetry/metrics surface. Like the teacher's pkg/config.Load
// it uses viper, mapstructure decode hooks, and validator struct tags;
// the sources it layers (env > file > defaults, no flags) are listed on
// Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is netconfd's complete static configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (NETCONFD_*), for keys the config file sets
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// No CLI flag overrides a field. When no config file is found, Load
// returns Default() and environment variables are not read; an
// environment variable for a key absent from the file is ignored too.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and optional
	// Pyroscope continuous profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics configures the Prometheus metrics HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin configures the debug/admin HTTP surface (pkg/adminhttp):
	// /healthz, /metrics, /sessions.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`

	// Transport configures the local control socket the SSH subsystem's
	// transport adaptor connects to (spec.md §6).
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`

	// Session bounds per-session resources (spec.md §4.A, §4.B).
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// Framing bounds the NETCONF 1.1 chunk codec (spec.md §4.A, §9 Open
	// Question: "The exact maximum chunk size... is not stated in the
	// code; implementers should make this a configurable parameter").
	Framing FramingConfig `mapstructure:"framing" yaml:"framing"`

	// IOLoop tunes the multiplexer's scheduling and backpressure
	// behavior (spec.md §4.C).
	IOLoop IOLoopConfig `mapstructure:"ioloop" yaml:"ioloop"`

	// ShutdownTimeout bounds how long the admin HTTP server is given to
	// stop on graceful shutdown. Sessions are closed at once; output still
	// queued for them is not flushed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior, matching the teacher's
// internal/logger level/format switch.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file
	// path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling, optional and
// off by default per SPEC_FULL.md's ambient stack section.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics endpoint served by
// pkg/adminhttp.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// AdminConfig configures the admin/debug HTTP listener.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// TransportConfig configures the local control socket (spec.md §6).
type TransportConfig struct {
	// SocketPath is the Unix-domain stream socket path the transport
	// adaptor dials. Default matches the original's NCXSERVER_SOCKNAME.
	SocketPath string `mapstructure:"socket_path" validate:"required" yaml:"socket_path"`

	// Magic is the shared token the adaptor must present in its
	// ncx-connect handshake; a mismatch closes the connection with no
	// reply (spec.md §6).
	Magic string `mapstructure:"magic" validate:"required" yaml:"magic"`
}

// DefaultSocketPath is NCXSERVER_SOCKNAME from the original
// agt_ncxserver.h, carried verbatim per spec.md §6.
const DefaultSocketPath = "/tmp/ncxserver.sock"

// SessionConfig bounds per-session resources (spec.md §4.A, §4.B).
type SessionConfig struct {
	// FreeListCap bounds the per-session buffer free list.
	FreeListCap int `mapstructure:"free_list_cap" validate:"gt=0" yaml:"free_list_cap"`
	// MaxBuffers is the hard per-session buffer cap.
	MaxBuffers int `mapstructure:"max_buffers" validate:"gt=0" yaml:"max_buffers"`
	// CacheTimeout bounds virtual-value cache freshness (spec.md §3, §4.E).
	CacheTimeout time.Duration `mapstructure:"cache_timeout" validate:"gt=0" yaml:"cache_timeout"`
	// IdleTimeout is the maximum idle time before shutdown-requested.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gt=0" yaml:"idle_timeout"`
	// Lifetime is the absolute maximum session duration.
	Lifetime time.Duration `mapstructure:"lifetime" validate:"gt=0" yaml:"lifetime"`
}

// FramingConfig bounds the NETCONF 1.1 chunk codec.
type FramingConfig struct {
	// MaxChunkSize is the configurable resolution of spec.md §9's Open
	// Question on the maximum chunk length the server will accept.
	MaxChunkSize int `mapstructure:"max_chunk_size" validate:"gt=0" yaml:"max_chunk_size"`
	// BufferSize is the fixed payload capacity of one pooled buffer
	// (spec.md §4.A).
	BufferSize int `mapstructure:"buffer_size" validate:"gt=0" yaml:"buffer_size"`
}

// IOLoopConfig tunes the multiplexer's scheduling and backpressure
// behavior (spec.md §4.C).
type IOLoopConfig struct {
	TickInterval      time.Duration `mapstructure:"tick_interval" validate:"gt=0" yaml:"tick_interval"`
	ReadChunkSize     int           `mapstructure:"read_chunk_size" validate:"gt=0" yaml:"read_chunk_size"`
	MaxScatterBuffers int           `mapstructure:"max_scatter_buffers" validate:"gt=0" yaml:"max_scatter_buffers"`
	MaxScatterBytes   int           `mapstructure:"max_scatter_bytes" validate:"gt=0" yaml:"max_scatter_bytes"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return Default(), nil
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(durationDecodeHook())
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("netconfd: unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("netconfd: config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate runs struct-tag validation over cfg, mirroring the teacher's
// pkg/config.Validate (go-playground/validator).
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path in YAML form, restricted to owner
// read/write since transport.Magic is a shared secret.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("netconfd: create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("netconfd: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("netconfd: write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NETCONFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("netconfd: read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook lets config files and env vars spell durations as
// "30s"/"5m"/"1h" instead of raw nanosecond integers, matching the
// teacher's pkg/config durationDecodeHook.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "netconfd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "netconfd")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}
