package swarm

import (
	"fmt"
	"slices"

	"mazeswarm/internal/flock"
	"mazeswarm/internal/grid"
	"mazeswarm/internal/pheromone"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/programme"
	"mazeswarm/internal/solver"
	"mazeswarm/internal/topology"
	"mazeswarm/internal/vecmath"
)

// Dims is the dimensionality of agent positions and velocities.
const Dims = 2

// Spawn placement modes.
const (
	SpawnEntrance = "entrance"
	SpawnRandom   = "random"
)

// Environment is the static geometry the agents move through.
type Environment interface {
	Sense(n grid.Node, rotation grid.Direction) topology.Readings
	Resolve(from, to vecmath.Vec) (vecmath.Vec, bool)
	Passable(n grid.Node) bool
	Bounds() grid.Bounds
}

type Config struct {
	Agents       int
	CohortSize   int
	Workers      int
	Connectivity grid.Connectivity
	MaxPheromone float32
	TicksPerRun  int
	Seed         int64

	Start grid.Node
	Goal  grid.Node
	Spawn string

	Speed         float32
	MaxSpeed      float32
	Traction      float32
	SwampSlowdown float32
	// FlockShare caps the flocking impulse of an agent with a path at this
	// fraction of its passage speed.
	FlockShare    float32
	MaxStallTime  int
	StallEpsilon  float32
	SwampCost     float64
	StopOnSolve   bool

	Flock     flock.Weights
	Pheromone pheromone.Params
	Planner   planner.Policy
}

func DefaultConfig() Config {
	return Config{
		Agents:        21,
		CohortSize:    8,
		Workers:       4,
		Connectivity:  grid.Four,
		MaxPheromone:  100,
		TicksPerRun:   2000,
		Spawn:         SpawnEntrance,
		Speed:         0.25,
		MaxSpeed:      0.35,
		Traction:      0.1,
		SwampSlowdown: 0.5,
		FlockShare:    0.5,
		MaxStallTime:  programme.DefaultMaxStallTime,
		StallEpsilon:  1e-3,
		SwampCost:     solver.DefaultSwampCost,
		StopOnSolve:   true,
		Flock:         flock.DefaultWeights(),
		Pheromone:     pheromone.DefaultParams(),
		Planner:       planner.DefaultPolicy(),
	}
}

func (c Config) Validate() error {
	if c.Agents <= 0 {
		return fmt.Errorf("agents must be > 0")
	}
	if c.CohortSize <= 0 {
		return fmt.Errorf("cohort size must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if _, err := grid.ParseConnectivity(int(c.Connectivity)); err != nil {
		return err
	}
	if c.MaxPheromone <= 0 {
		return fmt.Errorf("max pheromone must be > 0")
	}
	if c.TicksPerRun <= 0 {
		return fmt.Errorf("ticks per run must be > 0")
	}
	if c.Speed <= 0 || c.MaxSpeed <= 0 {
		return fmt.Errorf("speed and max speed must be > 0")
	}
	if c.FlockShare < 0 || c.FlockShare >= 1 {
		return fmt.Errorf("flock share must be in [0, 1)")
	}
	if c.MaxStallTime < 0 {
		return fmt.Errorf("max stall time must be >= 0")
	}
	switch c.Spawn {
	case SpawnEntrance, SpawnRandom:
	default:
		return fmt.Errorf("unknown spawn mode %q", c.Spawn)
	}
	if err := c.Flock.Validate(); err != nil {
		return fmt.Errorf("flock: %w", err)
	}
	if err := c.Pheromone.Validate(); err != nil {
		return fmt.Errorf("pheromone: %w", err)
	}
	return nil
}

// Agent is one entry of a tick buffer. The simulator reads the previous
// buffer and writes a fresh Agent into the next one.
type Agent struct {
	ID        int                 `json:"id"`
	Position  vecmath.Vec         `json:"position"`
	Velocity  vecmath.Vec         `json:"velocity"`
	Carried   float32             `json:"carried"`
	Registers programme.Registers `json:"registers"`
	Mode      programme.Mode      `json:"mode"`
	Hits      int                 `json:"hits"`
	HitTicks  []int               `json:"hit_ticks,omitempty"`
}

func (a Agent) Clone() Agent {
	a.Position = a.Position.Clone()
	a.Velocity = a.Velocity.Clone()
	a.Registers = a.Registers.Clone()
	a.HitTicks = slices.Clone(a.HitTicks)
	return a
}

// Node returns the grid node under the agent.
func (a Agent) Node() grid.Node {
	return grid.NodeAt(a.Position[0], a.Position[1])
}
