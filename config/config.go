// Package config loads the settings of a repartitioning run from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/notargets/dgmigrate/partitions"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// MaxOrder bounds the element data degree; equidistant tetrahedron nodes
// degrade beyond it
const MaxOrder = 6

const (
	EnvMesh     = "DGMIGRATE_MESH"
	EnvRanks    = "DGMIGRATE_RANKS"
	EnvStrategy = "DGMIGRATE_STRATEGY"
	EnvMaxDepth = "DGMIGRATE_MAX_DEPTH"
	EnvLogLevel = "DGMIGRATE_LOG_LEVEL"
)

type Config struct {
	Mesh      MeshConfig      `yaml:"mesh"`
	Ranks     int             `yaml:"ranks"`
	Refine    RefineConfig    `yaml:"refine"`
	Partition PartitionConfig `yaml:"partition"`
	Migration MigrationConfig `yaml:"migration"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeshConfig selects the macro mesh: a mesh file when Path is set, a
// generated box otherwise
type MeshConfig struct {
	Path string    `yaml:"path"`
	Box  BoxConfig `yaml:"box"`
}

type BoxConfig struct {
	NX   int    `yaml:"nx"`
	NY   int    `yaml:"ny"`
	NZ   int    `yaml:"nz"`
	Kind string `yaml:"kind"` // hex, tet
}

// RefineConfig drives the refinement applied before rebalancing. Uniform
// levels come first, then Hotspot.Levels rounds refine every leaf whose
// centre lies within Hotspot.Radius of Hotspot.Center.
type RefineConfig struct {
	Uniform int           `yaml:"uniform"`
	Hotspot HotspotConfig `yaml:"hotspot"`
}

type HotspotConfig struct {
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
	Levels int        `yaml:"levels"`
}

type PartitionConfig struct {
	Strategy     string  `yaml:"strategy"`      // block, round-robin, weighted, graph
	MaxImbalance float64 `yaml:"max_imbalance"` // rebalance only above this max/avg weight
}

type MigrationConfig struct {
	MaxDepth int    `yaml:"max_depth"` // minimum levels walked below each macro
	Order    int    `yaml:"order"`     // polynomial degree of the element data
	Timeout  string `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Mesh: MeshConfig{
			Box: BoxConfig{NX: 4, NY: 2, NZ: 2, Kind: "hex"},
		},
		Ranks: 4,
		Refine: RefineConfig{
			Uniform: 0,
			Hotspot: HotspotConfig{Center: [3]float64{0, 0, 0}, Radius: 1.5, Levels: 2},
		},
		Partition: PartitionConfig{
			Strategy:     "weighted",
			MaxImbalance: 1.1,
		},
		Migration: MigrationConfig{
			MaxDepth: 0,
			Order:    2,
			Timeout:  "60s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv(EnvMesh); path != "" {
		c.Mesh.Path = path
	}
	if s := os.Getenv(EnvStrategy); s != "" {
		c.Partition.Strategy = s
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(lvl))
	}
	for env, dst := range map[string]*int{EnvRanks: &c.Ranks, EnvMaxDepth: &c.Migration.MaxDepth} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", env, raw, ErrInvalid)
		}
		*dst = v
	}
	return nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	var errs []error
	if c.Ranks < 1 {
		errs = append(errs, fmt.Errorf("ranks %d < 1", c.Ranks))
	}
	if c.Mesh.Path == "" {
		b := c.Mesh.Box
		if b.NX < 1 || b.NY < 1 || b.NZ < 1 {
			errs = append(errs, fmt.Errorf("box %dx%dx%d", b.NX, b.NY, b.NZ))
		}
		if b.Kind != "hex" && b.Kind != "tet" {
			errs = append(errs, fmt.Errorf("box kind %q", b.Kind))
		}
	}
	if c.Refine.Uniform < 0 || c.Refine.Hotspot.Levels < 0 {
		errs = append(errs, fmt.Errorf("negative refinement"))
	}
	if _, err := partitions.ParseStrategy(c.Partition.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Partition.MaxImbalance < 1 {
		errs = append(errs, fmt.Errorf("max_imbalance %g < 1", c.Partition.MaxImbalance))
	}
	if c.Migration.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth %d", c.Migration.MaxDepth))
	}
	if c.Migration.Order < 0 || c.Migration.Order > MaxOrder {
		errs = append(errs, fmt.Errorf("order %d outside [0,%d]", c.Migration.Order, MaxOrder))
	}
	if _, err := time.ParseDuration(c.Migration.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %v", err))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q", c.Logging.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// GetTimeout returns the migration timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Migration.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
