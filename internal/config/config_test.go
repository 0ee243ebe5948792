package config

import (
	"os"
	"path/filepath"
	"testing"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/pheromone"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	sim, err := cfg.Simulation()
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	if sim.Agents != 21 || sim.Connectivity != grid.Four || sim.Pheromone.Policy != pheromone.DecayPassive {
		t.Fatalf("unexpected simulation config %+v", sim)
	}
	if sim.Flock.Cohesion != 0.03 || sim.Flock.Alignment != 0.125 {
		t.Fatalf("unexpected flock weights %+v", sim.Flock)
	}
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
maze:
  width: 31
  height: 25
swarm:
  agents: 40
  connectivity: 8
pheromone:
  decay: on-visit
storage:
  kind: sqlite
  path: runs.db
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Maze.Width != 31 || cfg.Swarm.Agents != 40 || cfg.Storage.Kind != "sqlite" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Swarm.CohortSize != Default().Swarm.CohortSize {
		t.Fatalf("unset values must keep defaults, cohort size = %d", cfg.Swarm.CohortSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.MazeConfig().Connectivity != grid.Eight {
		t.Fatalf("connectivity not carried to maze config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAZESWARM_AGENTS", "7")
	t.Setenv("MAZESWARM_DECAY", "none")
	t.Setenv("MAZESWARM_STOP_ON_SOLVE", "false")
	t.Setenv("MAZESWARM_LOG_LEVEL", "debug")
	t.Setenv("MAZESWARM_WORKERS", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for explicit missing file, got %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Swarm.Agents != 7 || cfg.Pheromone.Decay != "none" || cfg.Run.StopOnSolve || cfg.Logging.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Swarm.Workers != Default().Swarm.Workers {
		t.Fatalf("invalid number must be ignored, workers = %d", cfg.Swarm.Workers)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even maze", func(c *Config) { c.Maze.Width = 20 }},
		{"zero agents", func(c *Config) { c.Swarm.Agents = 0 }},
		{"bad connectivity", func(c *Config) { c.Swarm.Connectivity = 6 }},
		{"bad decay", func(c *Config) { c.Pheromone.Decay = "sometimes" }},
		{"zero ticks", func(c *Config) { c.Run.Ticks = 0 }},
		{"bad storage", func(c *Config) { c.Storage.Kind = "postgres" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
