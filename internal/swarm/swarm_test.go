package swarm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/maze"
	"mazeswarm/internal/programme"
	"mazeswarm/internal/topology"
	"mazeswarm/internal/vecmath"
)

func parseMaze(t *testing.T, rows ...string) *maze.Maze {
	t.Helper()
	m, err := maze.Parse(rows, grid.Four)
	if err != nil {
		t.Fatalf("parse maze: %v", err)
	}
	return m
}

func testConfig(m *maze.Maze, agents int) Config {
	cfg := DefaultConfig()
	cfg.Agents = agents
	cfg.CohortSize = 2
	cfg.Workers = 2
	cfg.TicksPerRun = 200
	cfg.Seed = 7
	cfg.Start = m.Entrance()
	cfg.Goal = m.Exit()
	return cfg
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no agents", func(c *Config) { c.Agents = 0 }},
		{"no cohort", func(c *Config) { c.CohortSize = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"six neighbours", func(c *Config) { c.Connectivity = 6 }},
		{"no pheromone ceiling", func(c *Config) { c.MaxPheromone = 0 }},
		{"no ticks", func(c *Config) { c.TicksPerRun = 0 }},
		{"no speed", func(c *Config) { c.Speed = 0 }},
		{"flock share of one", func(c *Config) { c.FlockShare = 1 }},
		{"negative stall", func(c *Config) { c.MaxStallTime = -1 }},
		{"unknown spawn", func(c *Config) { c.Spawn = "anywhere" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGetImpulse(t *testing.T) {
	k := NewKernel(DefaultConfig(), nil, nil, nil)

	centred := Agent{Position: vecmath.Of(1.5, 1.5)}
	got := k.GetImpulse(centred, grid.East, true, topology.Passage)
	if !near(got[0], 0.25) || !near(got[1], 0) {
		t.Fatalf("centred impulse = %v", got)
	}

	got = k.GetImpulse(centred, grid.East, true, topology.Swamp)
	if !near(got[0], 0.125) {
		t.Fatalf("swamp impulse = %v", got)
	}

	offset := Agent{Position: vecmath.Of(1.2, 1.7)}
	got = k.GetImpulse(offset, grid.East, true, topology.Passage)
	if !near(got[0], 0.25) || !near(got[1], -0.02) {
		t.Fatalf("traction must only pull across the heading, got %v", got)
	}

	got = k.GetImpulse(centred, grid.North, false, topology.Passage)
	if !got.IsZero() {
		t.Fatalf("no path must give no impulse, got %v", got)
	}
}

func TestFlockingCannotCancelPassage(t *testing.T) {
	m := parseMaze(t, "#S#", "#.#", "#.#", "#E#")
	step := func(avoid vecmath.Vec) (Agent, vecmath.Vec) {
		sim, err := New(testConfig(m, 1), m)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		prev := sim.prev[0]
		cx, cy := grid.Center(prev.Node())
		prev.Position = vecmath.Of(cx, cy)
		prev.Registers = programme.Spawn(prev.Node(), prev.Position)
		next := sim.kernel.AgentAI(TickInput{
			Prev:    prev,
			PosSum:  prev.Position.Clone(),
			VelSum:  vecmath.New(Dims),
			Members: 1,
			Avoid:   avoid,
		})
		return next, prev.Position
	}

	free, _ := step(vecmath.New(Dims))
	if !free.Registers.HasPath {
		t.Fatal("expected a passage out of the entrance")
	}
	dir := free.Registers.Chosen
	delta := grid.Four.Delta(dir)
	against := vecmath.Of(float32(-delta.DX)*10, float32(-delta.DY)*10)

	pushed, from := step(against)
	if !pushed.Registers.HasPath || pushed.Registers.Chosen != dir {
		t.Fatalf("passage changed under pressure: %+v", pushed.Registers)
	}
	if p := topology.Progress(grid.Four, dir, from, pushed.Position); p <= 0 {
		t.Fatalf("flocking reversed the passage impulse, progress %f", p)
	}
}

func TestNewRejectsBlockedLandmarks(t *testing.T) {
	m := parseMaze(t, "#S#", "#.#", "#E#")
	cfg := testConfig(m, 1)
	cfg.Goal = grid.Node{X: 0, Y: 0}
	if _, err := New(cfg, m); err == nil {
		t.Fatal("expected error for goal inside a wall")
	}
	if _, err := New(testConfig(m, 1), nil); err == nil {
		t.Fatal("expected error without environment")
	}
}

func TestStepKeepsAgentsInOpenCells(t *testing.T) {
	m := parseMaze(t,
		"#S###",
		"#...#",
		"#.#.#",
		"#~..#",
		"###E#",
	)
	cfg := testConfig(m, 5)
	cfg.StopOnSolve = false
	sim, err := New(cfg, m)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		metrics, err := sim.Step(ctx)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if metrics.Tick != i {
			t.Fatalf("metrics tick = %d, want %d", metrics.Tick, i)
		}
		if metrics.Explored < 0 || metrics.Explored > 1 {
			t.Fatalf("explored fraction %f out of range", metrics.Explored)
		}
		for _, a := range sim.Snapshot() {
			if !m.Passable(a.Node()) {
				t.Fatalf("tick %d: agent %d inside wall at %v", i, a.ID, a.Position)
			}
			if r := a.Registers.Rotation; int(r) < 0 || int(r) >= grid.Four.N() {
				t.Fatalf("rotation %d out of range", r)
			}
		}
	}
	if sim.Tick() != 60 {
		t.Fatalf("tick = %d", sim.Tick())
	}
	if snap := sim.Map().Snapshot(); snap.Counts()[0] == snap.Bounds.Cells() {
		t.Fatal("no cell was reached after 60 ticks")
	}
}

func TestStepHonoursCancelledContext(t *testing.T) {
	m := parseMaze(t, "#S#", "#.#", "#E#")
	sim, err := New(testConfig(m, 2), m)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Step(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sim.Tick() != 0 {
		t.Fatalf("cancelled step must not advance, tick = %d", sim.Tick())
	}
}

func TestRunSolvesCorridor(t *testing.T) {
	m := parseMaze(t,
		"#S#",
		"#.#",
		"#.#",
		"#E#",
	)
	sim, err := New(testConfig(m, 1), m)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var observed int
	summary, err := sim.Run(context.Background(), 200, func(TickMetrics) error {
		observed++
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Solved {
		t.Fatalf("corridor not solved in %d ticks", summary.Ticks)
	}
	if summary.Ticks != observed || summary.Ticks >= 200 {
		t.Fatalf("run must stop on solve: ticks=%d observed=%d", summary.Ticks, observed)
	}
	res, at := sim.Solution()
	if at != summary.SolvedAt || len(res.Path) != 4 {
		t.Fatalf("solution = %v at %d", res.Path, at)
	}
	if res.Path[0] != m.Entrance() || res.Path[len(res.Path)-1] != m.Exit() {
		t.Fatalf("path must run from entrance to exit: %v", res.Path)
	}
	for _, n := range res.Path {
		if !sim.Map().Cell(n).Goal() {
			t.Fatalf("path cell %s not flagged", n)
		}
	}
}

func TestRunStopsOnObserverError(t *testing.T) {
	m := parseMaze(t, "#S#", "#.#", "#E#")
	cfg := testConfig(m, 1)
	cfg.StopOnSolve = false
	sim, err := New(cfg, m)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	stop := errors.New("stop")
	_, err = sim.Run(context.Background(), 50, func(m TickMetrics) error {
		if m.Tick == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected observer error, got %v", err)
	}
	if sim.Tick() != 3 {
		t.Fatalf("tick = %d", sim.Tick())
	}
}

func TestDefaultSwarmSolvesGeneratedMaze(t *testing.T) {
	const budget = 400
	for _, seed := range []int64{1, 2, 3} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			mc := maze.DefaultConfig()
			mc.Width, mc.Height = 11, 11
			mc.Seed = seed
			m, err := maze.Generate(mc)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			cfg := DefaultConfig()
			cfg.Agents = 8
			cfg.TicksPerRun = budget
			cfg.Seed = seed
			cfg.Start = m.Entrance()
			cfg.Goal = m.Exit()
			sim, err := New(cfg, m)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			summary, err := sim.Run(context.Background(), budget, nil)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !summary.Solved {
				t.Fatalf("maze not solved in %d ticks (explored %.2f, hits %d)", summary.Ticks, summary.Explored, summary.Hits)
			}

			hits := 0
			for _, a := range sim.Snapshot() {
				if len(a.HitTicks) != a.Hits {
					t.Fatalf("agent %d: %d hit ticks for %d hits", a.ID, len(a.HitTicks), a.Hits)
				}
				for _, tick := range a.HitTicks {
					if tick < 0 || tick > summary.Ticks {
						t.Fatalf("agent %d: hit tick %d outside run", a.ID, tick)
					}
				}
				hits += a.Hits
			}
			if hits != summary.Hits {
				t.Fatalf("agent hits %d, summary hits %d", hits, summary.Hits)
			}
		})
	}
}
