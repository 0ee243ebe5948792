// Package config loads mazeswarm settings from YAML and MAZESWARM_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mazeswarm/internal/flock"
	"mazeswarm/internal/grid"
	"mazeswarm/internal/logging"
	"mazeswarm/internal/maze"
	"mazeswarm/internal/pheromone"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/swarm"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MAZESWARM_"

type Config struct {
	Maze      MazeConfig      `json:"maze" yaml:"maze"`
	Swarm     SwarmConfig     `json:"swarm" yaml:"swarm"`
	Flock     flock.Weights   `json:"flock" yaml:"flock"`
	Pheromone PheromoneConfig `json:"pheromone" yaml:"pheromone"`
	Run       RunConfig       `json:"run" yaml:"run"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

type MazeConfig struct {
	Width        int     `json:"width" yaml:"width"`
	Height       int     `json:"height" yaml:"height"`
	SwampDensity float64 `json:"swamp_density" yaml:"swamp_density"`
	Seed         int64   `json:"seed" yaml:"seed"`
	// File optionally points at a drawn maze ('#', '.', '~', 'S', 'E').
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

type SwarmConfig struct {
	Agents          int     `json:"agents" yaml:"agents"`
	CohortSize      int     `json:"cohort_size" yaml:"cohort_size"`
	Workers         int     `json:"workers" yaml:"workers"`
	Connectivity    int     `json:"connectivity" yaml:"connectivity"`
	MaxPheromone    float32 `json:"max_pheromone" yaml:"max_pheromone"`
	Spawn           string  `json:"spawn" yaml:"spawn"`
	Speed           float32 `json:"speed" yaml:"speed"`
	MaxSpeed        float32 `json:"max_speed" yaml:"max_speed"`
	Traction        float32 `json:"traction" yaml:"traction"`
	SwampSlowdown   float32 `json:"swamp_slowdown" yaml:"swamp_slowdown"`
	FlockShare      float32 `json:"flock_share" yaml:"flock_share"`
	MaxStallTime    int     `json:"max_stall_time" yaml:"max_stall_time"`
	StallEpsilon    float32 `json:"stall_epsilon" yaml:"stall_epsilon"`
	SwampPenalty    float32 `json:"swamp_penalty" yaml:"swamp_penalty"`
	ReversalPenalty float32 `json:"reversal_penalty" yaml:"reversal_penalty"`
	SwampCost       float64 `json:"swamp_cost" yaml:"swamp_cost"`
	Seed            int64   `json:"seed" yaml:"seed"`
}

type PheromoneConfig struct {
	NodeDeposit float32 `json:"node_deposit" yaml:"node_deposit"`
	TrailRefill float32 `json:"trail_refill" yaml:"trail_refill"`
	TrailDecay  float32 `json:"trail_decay" yaml:"trail_decay"`
	// Decay is "passive", "on-visit" or "none".
	Decay         string  `json:"decay" yaml:"decay"`
	Rate          float32 `json:"rate" yaml:"rate"`
	MarkerDeposit float32 `json:"marker_deposit" yaml:"marker_deposit"`
	MarkerRate    float32 `json:"marker_rate" yaml:"marker_rate"`
}

type RunConfig struct {
	Ticks       int  `json:"ticks" yaml:"ticks"`
	StopOnSolve bool `json:"stop_on_solve" yaml:"stop_on_solve"`
	// Parallel bounds the runs of an experiment executed at once.
	Parallel  int    `json:"parallel" yaml:"parallel"`
	ReportDir string `json:"report_dir" yaml:"report_dir"`
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty"`
}

type StorageConfig struct {
	// Kind is "memory" or "sqlite". Empty selects the build default.
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
}

type LoggingConfig struct {
	// Level is "warn", "info", "debug" or "trace".
	Level string `json:"level" yaml:"level"`
	// Format is "auto", "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// Default mirrors the prototype settings: a 21x21 maze and 21 agents.
func Default() *Config {
	sw := swarm.DefaultConfig()
	mz := maze.DefaultConfig()
	ph := pheromone.DefaultParams()
	return &Config{
		Maze: MazeConfig{
			Width:        mz.Width,
			Height:       mz.Height,
			SwampDensity: mz.SwampDensity,
		},
		Swarm: SwarmConfig{
			Agents:          sw.Agents,
			CohortSize:      sw.CohortSize,
			Workers:         sw.Workers,
			Connectivity:    int(sw.Connectivity),
			MaxPheromone:    sw.MaxPheromone,
			Spawn:           sw.Spawn,
			Speed:           sw.Speed,
			MaxSpeed:        sw.MaxSpeed,
			Traction:        sw.Traction,
			SwampSlowdown:   sw.SwampSlowdown,
			FlockShare:      sw.FlockShare,
			MaxStallTime:    sw.MaxStallTime,
			StallEpsilon:    sw.StallEpsilon,
			SwampPenalty:    sw.Planner.SwampPenalty,
			ReversalPenalty: sw.Planner.ReversalPenalty,
			SwampCost:       sw.SwampCost,
		},
		Flock: flock.DefaultWeights(),
		Pheromone: PheromoneConfig{
			NodeDeposit:   ph.NodeDeposit,
			TrailRefill:   ph.TrailRefill,
			TrailDecay:    ph.TrailDecay,
			Decay:         ph.Policy.String(),
			Rate:          ph.Rate,
			MarkerDeposit: ph.MarkerDeposit,
			MarkerRate:    ph.MarkerRate,
		},
		Run: RunConfig{
			Ticks:       sw.TicksPerRun,
			StopOnSolve: true,
			Parallel:    2,
			ReportDir:   "reports",
		},
		Storage: StorageConfig{Path: "mazeswarm.db"},
		Logging: LoggingConfig{Level: "info", Format: logging.FormatAuto},
	}
}

// DefaultPath is ~/.mazeswarm/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mazeswarm", "config.yaml")
}

// Load reads path, or DefaultPath when path is empty and that file exists,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if p := DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile overlays the YAML at path onto the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Maze.File == "" {
		if err := c.MazeConfig().Validate(); err != nil {
			return fmt.Errorf("maze: %w", err)
		}
	}
	sw, err := c.Simulation()
	if err != nil {
		return err
	}
	if err := sw.Validate(); err != nil {
		return fmt.Errorf("swarm: %w", err)
	}
	if c.Run.Ticks <= 0 {
		return fmt.Errorf("run: ticks must be > 0")
	}
	if c.Run.Parallel <= 0 {
		return fmt.Errorf("run: parallel must be > 0")
	}
	switch c.Storage.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("storage: unsupported kind %q", c.Storage.Kind)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatAuto, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("logging: unsupported format %q", c.Logging.Format)
	}
	return nil
}

// MazeConfig converts the maze section for the generator.
func (c *Config) MazeConfig() maze.Config {
	return maze.Config{
		Width:        c.Maze.Width,
		Height:       c.Maze.Height,
		SwampDensity: c.Maze.SwampDensity,
		Connectivity: grid.Connectivity(c.Swarm.Connectivity),
		Seed:         c.Maze.Seed,
	}
}

// Simulation converts the swarm, flock and pheromone sections. Start and
// goal are left for the caller, which knows the maze.
func (c *Config) Simulation() (swarm.Config, error) {
	policy, err := pheromone.ParseDecayPolicy(c.Pheromone.Decay)
	if err != nil {
		return swarm.Config{}, fmt.Errorf("pheromone: %w", err)
	}
	return swarm.Config{
		Agents:        c.Swarm.Agents,
		CohortSize:    c.Swarm.CohortSize,
		Workers:       c.Swarm.Workers,
		Connectivity:  grid.Connectivity(c.Swarm.Connectivity),
		MaxPheromone:  c.Swarm.MaxPheromone,
		TicksPerRun:   c.Run.Ticks,
		Seed:          c.Swarm.Seed,
		Spawn:         c.Swarm.Spawn,
		Speed:         c.Swarm.Speed,
		MaxSpeed:      c.Swarm.MaxSpeed,
		Traction:      c.Swarm.Traction,
		SwampSlowdown: c.Swarm.SwampSlowdown,
		FlockShare:    c.Swarm.FlockShare,
		MaxStallTime:  c.Swarm.MaxStallTime,
		StallEpsilon:  c.Swarm.StallEpsilon,
		SwampCost:     c.Swarm.SwampCost,
		StopOnSolve:   c.Run.StopOnSolve,
		Flock:         c.Flock,
		Pheromone: pheromone.Params{
			NodeDeposit:   c.Pheromone.NodeDeposit,
			TrailRefill:   c.Pheromone.TrailRefill,
			TrailDecay:    c.Pheromone.TrailDecay,
			Policy:        policy,
			Rate:          c.Pheromone.Rate,
			MarkerDeposit: c.Pheromone.MarkerDeposit,
			MarkerRate:    c.Pheromone.MarkerRate,
		},
		Planner: planner.Policy{
			SwampPenalty:    c.Swarm.SwampPenalty,
			ReversalPenalty: c.Swarm.ReversalPenalty,
		},
	}, nil
}

func applyEnvOverrides(cfg *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt64 := func(key string, dst *int64) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	setInt("MAZE_WIDTH", &cfg.Maze.Width)
	setInt("MAZE_HEIGHT", &cfg.Maze.Height)
	setInt64("MAZE_SEED", &cfg.Maze.Seed)
	setString("MAZE_FILE", &cfg.Maze.File)
	setInt("AGENTS", &cfg.Swarm.Agents)
	setInt("COHORT_SIZE", &cfg.Swarm.CohortSize)
	setInt("WORKERS", &cfg.Swarm.Workers)
	setInt("CONNECTIVITY", &cfg.Swarm.Connectivity)
	setInt64("SEED", &cfg.Swarm.Seed)
	setString("SPAWN", &cfg.Swarm.Spawn)
	setString("DECAY", &cfg.Pheromone.Decay)
	setInt("TICKS", &cfg.Run.Ticks)
	setInt("PARALLEL", &cfg.Run.Parallel)
	setString("REPORT_DIR", &cfg.Run.ReportDir)
	setString("STORAGE", &cfg.Storage.Kind)
	setString("STORAGE_PATH", &cfg.Storage.Path)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	if v := os.Getenv(EnvPrefix + "STOP_ON_SOLVE"); v != "" {
		cfg.Run.StopOnSolve = v == "true" || v == "1"
	}
}
