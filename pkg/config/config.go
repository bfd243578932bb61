// Package config loads the latmesh.toml configuration file used by the
// serve command and shared by CLI flags as a defaults layer.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML configuration.
//
// All sections are optional; zero values fall back to the defaults
// applied by Default and by the consuming packages.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Source SourceConfig `toml:"source"`
}

// EngineConfig mirrors the strategy policy knobs of pkg/engine.
type EngineConfig struct {
	AllPairsMaxNodes int   `toml:"all_pairs_max_nodes"`
	PromoteAfter     int   `toml:"promote_after"`
	ForceAllPairs    bool  `toml:"force_all_pairs"`
	MaxLatency       int64 `toml:"max_latency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     duration `toml:"read_timeout"`
	WriteTimeout    duration `toml:"write_timeout"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// CacheConfig selects and configures the route-table cache backend.
// Backend is one of "file", "redis", or "none".
type CacheConfig struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"` // file backend; empty means XDG default
	TTL     duration `toml:"ttl"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SourceConfig selects where the serve command loads its mesh from.
// Kind is one of "file" or "mongo".
type SourceConfig struct {
	Kind string `toml:"kind"`
	Path string `toml:"path"` // file kind: JSON mesh file

	Mongo MongoConfig `toml:"mongo"`
}

// MongoConfig holds connection settings for the mongo edge source.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Nodes      int    `toml:"nodes"` // mesh node count; edges outside [1, nodes] fail the build
}

// duration wraps time.Duration with TOML string decoding ("30s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     duration{10 * time.Second},
			WriteTimeout:    duration{30 * time.Second},
			ShutdownTimeout: duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Source: SourceConfig{
			Kind: "file",
		},
	}
}

// Load reads and decodes a TOML config file, layering it over Default.
// Unknown keys are rejected so typos fail loudly instead of silently
// falling back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, nil
}

// ReadTimeoutDuration and friends expose the wrapped durations without
// leaking the toml decoding type.
func (s ServerConfig) ReadTimeoutDuration() time.Duration     { return s.ReadTimeout.Duration }
func (s ServerConfig) WriteTimeoutDuration() time.Duration    { return s.WriteTimeout.Duration }
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration { return s.ShutdownTimeout.Duration }

// TTLDuration returns the configured cache TTL.
func (c CacheConfig) TTLDuration() time.Duration { return c.TTL.Duration }
