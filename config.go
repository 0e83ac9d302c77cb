package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr   = ":8080"
	defaultOSRMBaseURL  = "https://router.project-osrm.org"
	defaultOSRMProfile  = "driving"
	defaultOSRMTimeout  = 10 * time.Second
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 60 * time.Second
)

// Config is the service configuration. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OSRM      OSRMConfig      `yaml:"osrm"`
	Avoidance AvoidanceConfig `yaml:"avoidance"`
	Hazards   HazardsConfig   `yaml:"hazards"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// OSRMConfig points the client at an OSRM-compatible routing service
type OSRMConfig struct {
	BaseURL string        `yaml:"base_url"`
	Profile string        `yaml:"profile"`
	Timeout time.Duration `yaml:"timeout"`
}

type AvoidanceConfig struct {
	BufferMeters      float64 `yaml:"buffer_meters"`
	SampleStep        int     `yaml:"sample_step"`
	MaxCandidates     int     `yaml:"max_candidates"`
	OffsetMeters      float64 `yaml:"offset_meters"`
	CheckSegments     bool    `yaml:"check_segments"`
	UseDisasterBuffer bool    `yaml:"use_disaster_buffers"`
}

// HazardsConfig controls the GeoJSON import at startup. SimplifyEpsilon is
// in degrees; zero keeps imported rings as they are.
type HazardsConfig struct {
	GeoJSONDir      string  `yaml:"geojson_dir"`
	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
}

// StoreConfig locates the route history database. An empty path disables
// history.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects the log level (debug, info, warn, error) and format
// (text or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         defaultServerAddr,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		OSRM: OSRMConfig{
			BaseURL: defaultOSRMBaseURL,
			Profile: defaultOSRMProfile,
			Timeout: defaultOSRMTimeout,
		},
		Avoidance: AvoidanceConfig{
			BufferMeters:  DefaultBufferMeters,
			SampleStep:    DefaultSampleStep,
			MaxCandidates: DefaultMaxCandidates,
			OffsetMeters:  DefaultOffsetMeters,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads path (skipped when empty) over the defaults and applies
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.OSRM.BaseURL = getEnv("OSRM_BASE_URL", cfg.OSRM.BaseURL)
	cfg.OSRM.Profile = getEnv("OSRM_PROFILE", cfg.OSRM.Profile)
	cfg.OSRM.Timeout = getEnvDuration("OSRM_TIMEOUT", cfg.OSRM.Timeout)
	cfg.Avoidance.BufferMeters = getEnvFloat("BUFFER_METERS", cfg.Avoidance.BufferMeters)
	cfg.Hazards.GeoJSONDir = getEnv("HAZARDS_DIR", cfg.Hazards.GeoJSONDir)
	cfg.Store.Path = getEnv("STORE_PATH", cfg.Store.Path)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.OSRM.BaseURL == "" {
		return fmt.Errorf("config: osrm.base_url is required")
	}
	if c.Avoidance.BufferMeters < 0 {
		return fmt.Errorf("config: avoidance.buffer_meters must not be negative")
	}
	if c.Avoidance.OffsetMeters < 0 {
		return fmt.Errorf("config: avoidance.offset_meters must not be negative")
	}
	if c.Hazards.SimplifyEpsilon < 0 {
		return fmt.Errorf("config: hazards.simplify_epsilon must not be negative")
	}
	return nil
}

// EngineOptions converts the avoidance section into engine defaults
func (c Config) EngineOptions() EngineOptions {
	return EngineOptions{
		BufferMeters:       c.Avoidance.BufferMeters,
		UseDisasterBuffers: c.Avoidance.UseDisasterBuffer,
		CheckSegments:      c.Avoidance.CheckSegments,
		Candidates: CandidateOptions{
			SampleStep:    c.Avoidance.SampleStep,
			MaxCandidates: c.Avoidance.MaxCandidates,
			OffsetMeters:  c.Avoidance.OffsetMeters,
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
