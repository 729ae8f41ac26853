// Package config holds the terrain simulator settings.
package config

import (
	"fmt"
	"time"
)

// Config holds all settings. Zero-valued fields in a file keep their defaults.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	Worker  WorkerConfig  `yaml:"worker"`
	Height  HeightConfig  `yaml:"height"`
	Logging LoggingConfig `yaml:"logging"`
}

// TerrainConfig sizes the patch grid.
type TerrainConfig struct {
	BasePatchSize int     `yaml:"base_patch_size"` // world units, power of two
	Resolution    int     `yaml:"resolution"`      // cells per patch edge
	LODLevels     int     `yaml:"lod_levels"`
	HeightScale   float32 `yaml:"height_scale"`
	Seed          uint32  `yaml:"seed"`
}

// WorkerConfig selects how generation is scheduled and delivered.
type WorkerConfig struct {
	Mode        string  `yaml:"mode"`         // threaded, busy, inline
	Delivery    string  `yaml:"delivery"`     // deferred, immediate
	BusyRate    float64 `yaml:"busy_rate"`    // passes per second, 0 = unlimited
	AssignOrder string  `yaml:"assign_order"` // scan, center, facing
}

// HeightConfig selects the height source.
type HeightConfig struct {
	Source       string        `yaml:"source"` // fbm, simplex, perlin, file
	File         string        `yaml:"file"`
	Fetch        string        `yaml:"fetch"` // remote URL downloaded into CacheDir
	CacheDir     string        `yaml:"cache_dir"`
	Span         float64       `yaml:"span"` // patches covered by one copy of the file
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock settings.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			BasePatchSize: 512,
			Resolution:    64,
			LODLevels:     1,
			HeightScale:   128,
			Seed:          1234567,
		},
		Worker: WorkerConfig{
			Mode:        "threaded",
			Delivery:    "deferred",
			BusyRate:    0,
			AssignOrder: "scan",
		},
		Height: HeightConfig{
			Source:       "fbm",
			CacheDir:     "cache",
			Span:         1,
			FetchTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values the terrain package would reject later.
func (c *Config) Validate() error {
	t := c.Terrain
	if t.BasePatchSize <= 0 || t.BasePatchSize&(t.BasePatchSize-1) != 0 {
		return fmt.Errorf("terrain.base_patch_size %d is not a power of two", t.BasePatchSize)
	}
	if t.Resolution < 1 || t.Resolution > 1024 {
		return fmt.Errorf("terrain.resolution %d out of range 1..1024", t.Resolution)
	}
	if t.LODLevels < 1 || t.LODLevels > 8 {
		return fmt.Errorf("terrain.lod_levels %d out of range 1..8", t.LODLevels)
	}
	if t.HeightScale <= 0 {
		return fmt.Errorf("terrain.height_scale must be positive")
	}

	if !oneOf(c.Worker.Mode, "threaded", "busy", "inline") {
		return fmt.Errorf("worker.mode %q unknown", c.Worker.Mode)
	}
	if !oneOf(c.Worker.Delivery, "deferred", "immediate") {
		return fmt.Errorf("worker.delivery %q unknown", c.Worker.Delivery)
	}
	if c.Worker.BusyRate < 0 {
		return fmt.Errorf("worker.busy_rate must not be negative")
	}
	if !oneOf(c.Worker.AssignOrder, "scan", "center", "facing") {
		return fmt.Errorf("worker.assign_order %q unknown", c.Worker.AssignOrder)
	}

	if !oneOf(c.Height.Source, "fbm", "simplex", "perlin", "file") {
		return fmt.Errorf("height.source %q unknown", c.Height.Source)
	}
	if c.Height.Source == "file" && c.Height.File == "" && c.Height.Fetch == "" {
		return fmt.Errorf("height.source is file but neither height.file nor height.fetch is set")
	}
	if c.Height.Span <= 0 {
		return fmt.Errorf("height.span must be positive")
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
