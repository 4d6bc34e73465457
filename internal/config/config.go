// Package config handles configuration loading for the workers and the dev platform.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the shared configuration file. Workers read Client, Log,
// ROI and Spots; the dev platform reads Server, Data, Cache and Render.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
	ROI    ROIConfig    `yaml:"roi"`
	Spots  SpotsConfig  `yaml:"spots"`
}

// ServerConfig contains dev platform HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig contains dev platform data source settings.
type DataConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	TileDir    string `yaml:"tile_dir"`
}

// CacheConfig contains dev platform caching settings.
type CacheConfig struct {
	TileSizeMB     int `yaml:"tile_size_mb"`
	TileTTLMinutes int `yaml:"tile_ttl_minutes"`
	QueryCacheSize int `yaml:"query_cache_size"`
}

// RenderConfig contains annotated tile rendering settings.
type RenderConfig struct {
	PointRadius float64 `yaml:"point_radius"`
}

// ClientConfig contains settings for the platform HTTP clients.
type ClientConfig struct {
	// TimeoutSeconds of 0 leaves requests without a deadline.
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

// Timeout returns the request timeout as a duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogConfig contains logging settings.
type LogConfig struct {
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxAge    int    `yaml:"max_age_days"`
	Verbose   bool   `yaml:"verbose"`
}

// ROIConfig contains circular-ROI statistics settings.
type ROIConfig struct {
	Radius      float64 `yaml:"radius"`
	InsideValue uint8   `yaml:"inside_value"`
}

// SpotsConfig contains spot detection settings.
type SpotsConfig struct {
	Sigma             float64 `yaml:"sigma"`
	MinDistance       int     `yaml:"min_distance"`
	ResponseThreshold float64 `yaml:"response_threshold"`
	MaxUploads        int     `yaml:"max_uploads"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Data: DataConfig{
			SQLitePath: "./data/platform.sqlite",
			TileDir:    "./data/tiles",
		},
		Cache: CacheConfig{
			TileSizeMB:     512,
			TileTTLMinutes: 10,
			QueryCacheSize: 1000,
		},
		Render: RenderConfig{
			PointRadius: 3,
		},
		Client: ClientConfig{
			UserAgent: "annotation-worker/1.0",
		},
		Log: LogConfig{
			MaxSizeMB: 100,
			MaxAge:    7,
		},
		ROI: ROIConfig{
			Radius:      5,
			InsideValue: 255,
		},
		Spots: SpotsConfig{
			Sigma:             2,
			MinDistance:       3,
			ResponseThreshold: 0.0001,
			MaxUploads:        101,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Data.SQLitePath == "" {
		cfg.Data.SQLitePath = defaults.Data.SQLitePath
	}
	if cfg.Data.TileDir == "" {
		cfg.Data.TileDir = defaults.Data.TileDir
	}
	if cfg.Cache.TileSizeMB == 0 {
		cfg.Cache.TileSizeMB = defaults.Cache.TileSizeMB
	}
	if cfg.Cache.TileTTLMinutes == 0 {
		cfg.Cache.TileTTLMinutes = defaults.Cache.TileTTLMinutes
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}
	if cfg.Render.PointRadius == 0 {
		cfg.Render.PointRadius = defaults.Render.PointRadius
	}
	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = defaults.Client.UserAgent
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if cfg.Log.MaxAge == 0 {
		cfg.Log.MaxAge = defaults.Log.MaxAge
	}
	if cfg.ROI.Radius == 0 {
		cfg.ROI.Radius = defaults.ROI.Radius
	}
	if cfg.ROI.InsideValue == 0 {
		cfg.ROI.InsideValue = defaults.ROI.InsideValue
	}
	if cfg.Spots.Sigma == 0 {
		cfg.Spots.Sigma = defaults.Spots.Sigma
	}
	if cfg.Spots.MinDistance == 0 {
		cfg.Spots.MinDistance = defaults.Spots.MinDistance
	}
	if cfg.Spots.ResponseThreshold == 0 {
		cfg.Spots.ResponseThreshold = defaults.Spots.ResponseThreshold
	}
	if cfg.Spots.MaxUploads == 0 {
		cfg.Spots.MaxUploads = defaults.Spots.MaxUploads
	}
}
