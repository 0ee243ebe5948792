// Package swarm sequences the per-agent kernel over a double-buffered agent
// population. One tick runs the pairwise avoidance pass, then every cohort
// reduces its sums behind a cohort barrier and runs its members in parallel.
// After the tick barrier the host phase resolves collisions, dissolves
// pheromone and checks for a solution.
package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"mazeswarm/internal/flock"
	"mazeswarm/internal/grid"
	"mazeswarm/internal/logging"
	"mazeswarm/internal/pheromone"
	"mazeswarm/internal/programme"
	"mazeswarm/internal/randstream"
	"mazeswarm/internal/solver"
	"mazeswarm/internal/vecmath"
	"mazeswarm/internal/worldmap"
)

// TickMetrics is read back after every tick.
type TickMetrics struct {
	Tick         int     `json:"tick"`
	Explored     float64 `json:"explored"`
	Stalled      int     `json:"stalled"`
	Backtracking int     `json:"backtracking"`
	Hits         int     `json:"hits"`
	Deadends     int     `json:"deadends"`
	Pheromone    float64 `json:"pheromone"`
	Solved       bool    `json:"solved"`
	PathLength   int     `json:"path_length"`
}

type Summary struct {
	Ticks      int           `json:"ticks"`
	Solved     bool          `json:"solved"`
	SolvedAt   int           `json:"solved_at"`
	PathLength int           `json:"path_length"`
	PathCost   float64       `json:"path_cost"`
	Explored   float64       `json:"explored"`
	Hits       int           `json:"hits"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Observer is called after every tick. Returning an error stops the run.
type Observer func(TickMetrics) error

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

type Simulator struct {
	cfg     Config
	env     Environment
	world   *worldmap.Map
	stream  *randstream.Stream
	kernel  *Kernel
	logger  *slog.Logger
	cohorts []*flock.Cohort
	avoid   *flock.AvoidanceBuffer

	prev []Agent
	next []Agent

	tick     int
	hits     int
	solution solver.Result
	solvedAt int
}

func New(cfg Config, env Environment, opts ...Option) (*Simulator, error) {
	if env == nil {
		return nil, fmt.Errorf("environment is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !env.Passable(cfg.Start) {
		return nil, fmt.Errorf("start %s is not passable", cfg.Start)
	}
	if !env.Passable(cfg.Goal) {
		return nil, fmt.Errorf("goal %s is not passable", cfg.Goal)
	}
	world, err := worldmap.New(env.Bounds(), cfg.Connectivity, cfg.MaxPheromone, cfg.Start, cfg.Goal)
	if err != nil {
		return nil, fmt.Errorf("allocate map: %w", err)
	}
	stream, err := randstream.New(cfg.Seed, cfg.Agents, cfg.TicksPerRun)
	if err != nil {
		return nil, fmt.Errorf("allocate random stream: %w", err)
	}

	s := &Simulator{
		cfg:      cfg,
		env:      env,
		world:    world,
		stream:   stream,
		kernel:   NewKernel(cfg, env, world, stream),
		logger:   slog.New(slog.DiscardHandler),
		avoid:    flock.NewAvoidanceBuffer(cfg.Agents, Dims),
		prev:     make([]Agent, cfg.Agents),
		next:     make([]Agent, cfg.Agents),
		solvedAt: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	cohorts := (cfg.Agents + cfg.CohortSize - 1) / cfg.CohortSize
	s.cohorts = make([]*flock.Cohort, cohorts)
	for i := range s.cohorts {
		s.cohorts[i] = flock.NewCohort(Dims)
	}
	if err := s.spawn(); err != nil {
		return nil, err
	}
	return s, nil
}

// spawn places every agent at a cell centre with a small jitter so that no
// two agents start on the same point.
func (s *Simulator) spawn() error {
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	var free []grid.Node
	if s.cfg.Spawn == SpawnRandom {
		b := s.env.Bounds()
		for i := 0; i < b.Cells(); i++ {
			if n := b.Node(i); s.env.Passable(n) {
				free = append(free, n)
			}
		}
		if len(free) == 0 {
			return fmt.Errorf("environment has no free cell to spawn on")
		}
	}
	for i := range s.prev {
		node := s.cfg.Start
		if len(free) > 0 {
			node = free[rng.Intn(len(free))]
		}
		cx, cy := grid.Center(node)
		pos := vecmath.Of(cx+(rng.Float32()-0.5)*0.4, cy+(rng.Float32()-0.5)*0.4)
		s.prev[i] = Agent{
			ID:        i,
			Position:  pos,
			Velocity:  vecmath.New(Dims),
			Registers: programme.Spawn(node, pos),
		}
	}
	return nil
}

func (s *Simulator) Map() *worldmap.Map {
	return s.world
}

func (s *Simulator) Tick() int {
	return s.tick
}

func (s *Simulator) Solution() (solver.Result, int) {
	return s.solution, s.solvedAt
}

// Snapshot copies the current agent buffer.
func (s *Simulator) Snapshot() []Agent {
	out := make([]Agent, len(s.prev))
	for i, a := range s.prev {
		out[i] = a.Clone()
	}
	return out
}

// Step runs one full tick. Cancellation is only observed before the tick
// starts; a tick in flight always completes.
func (s *Simulator) Step(ctx context.Context) (TickMetrics, error) {
	if err := ctx.Err(); err != nil {
		return TickMetrics{}, err
	}

	s.avoid.Reset()
	for _, c := range s.cohorts {
		c.Reset()
	}
	positions := make([]vecmath.Vec, len(s.prev))
	for i := range s.prev {
		positions[i] = s.prev[i].Position
	}
	s.avoid.AccumulateAll(positions, s.cfg.Flock.MinSeparation, s.cfg.Workers)

	jobs := make(chan int)
	workers := s.cfg.Workers
	if workers > len(s.cohorts) {
		workers = len(s.cohorts)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for c := range jobs {
				s.runCohort(c)
			}
		}()
	}
	for c := range s.cohorts {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	return s.host(), nil
}

func (s *Simulator) runCohort(c int) {
	lo := c * s.cfg.CohortSize
	hi := lo + s.cfg.CohortSize
	if hi > len(s.prev) {
		hi = len(s.prev)
	}
	cohort := s.cohorts[c]

	var reduce sync.WaitGroup
	for i := lo; i < hi; i++ {
		reduce.Add(1)
		go func(a Agent) {
			defer reduce.Done()
			cohort.Accumulate(a.Position, a.Velocity)
		}(s.prev[i])
	}
	reduce.Wait()
	posSum, velSum, members := cohort.Sums()

	var run sync.WaitGroup
	for i := lo; i < hi; i++ {
		run.Add(1)
		go func(i int) {
			defer run.Done()
			s.next[i] = s.kernel.AgentAI(TickInput{
				Tick:    s.tick,
				Prev:    s.prev[i],
				PosSum:  posSum,
				VelSum:  velSum,
				Members: members,
				Avoid:   s.avoid.Avoid(i),
			})
		}(i)
	}
	run.Wait()
}

// host runs the single-threaded tick boundary and swaps the buffers.
func (s *Simulator) host() TickMetrics {
	m := TickMetrics{Tick: s.tick}
	for i := range s.next {
		a := &s.next[i]
		from := s.prev[i].Position
		resolved, hit := s.env.Resolve(from, a.Position)
		if hit {
			a.Hits++
			a.HitTicks = append(a.HitTicks, s.tick)
			s.hits++
			m.Hits++
			a.Velocity = resolved.Sub(from)
		}
		a.Position = resolved
		if a.Registers.Stalled {
			m.Stalled++
		}
		if a.Mode == programme.Backtracking {
			m.Backtracking++
		}
	}

	pheromone.Dissolve(s.world, s.cfg.Pheromone)

	if !s.solution.Found {
		if res := solver.Solve(s.world, s.cfg.Start, s.cfg.Goal, s.cfg.SwampCost); res.Found {
			s.solution = res
			s.solvedAt = s.tick
			solver.MarkPath(s.world, res.Path)
			s.logger.Info("goal path found", "tick", s.tick, "length", len(res.Path), "cost", res.Cost)
		}
	}

	var total float64
	s.world.Each(func(_ grid.Node, c *worldmap.Cell) {
		total += float64(c.Pheromone())
		if c.Deadend() {
			m.Deadends++
		}
	})
	m.Pheromone = total
	m.Explored = s.world.ExploredFraction(s.env.Passable)
	m.Solved = s.solution.Found
	m.PathLength = len(s.solution.Path)

	s.prev, s.next = s.next, s.prev
	s.tick++

	s.logger.Log(context.Background(), logging.LevelTrace, "tick",
		"tick", m.Tick, "explored", m.Explored, "stalled", m.Stalled, "hits", m.Hits)
	return m
}

// Run steps until ticks have elapsed, the goal path is found (when
// StopOnSolve is set), the observer fails or ctx is done.
func (s *Simulator) Run(ctx context.Context, ticks int, observe Observer) (Summary, error) {
	if ticks <= 0 {
		return Summary{}, fmt.Errorf("ticks must be > 0")
	}
	started := time.Now()
	s.logger.Info("run started", "agents", s.cfg.Agents, "cohorts", len(s.cohorts), "ticks", ticks)

	var last TickMetrics
	var runErr error
	for i := 0; i < ticks; i++ {
		m, err := s.Step(ctx)
		if err != nil {
			runErr = err
			break
		}
		last = m
		if i%100 == 0 {
			s.logger.Debug("progress", "tick", m.Tick, "explored", m.Explored, "stalled", m.Stalled)
		}
		if observe != nil {
			if err := observe(m); err != nil {
				runErr = fmt.Errorf("observe tick %d: %w", m.Tick, err)
				break
			}
		}
		if m.Solved && s.cfg.StopOnSolve {
			break
		}
	}

	summary := Summary{
		Ticks:      s.tick,
		Solved:     s.solution.Found,
		SolvedAt:   s.solvedAt,
		PathLength: len(s.solution.Path),
		PathCost:   s.solution.Cost,
		Explored:   last.Explored,
		Hits:       s.hits,
		Elapsed:    time.Since(started),
	}
	s.logger.Info("run finished", "ticks", summary.Ticks, "solved", summary.Solved, "explored", summary.Explored, "elapsed", summary.Elapsed)
	return summary, runErr
}
