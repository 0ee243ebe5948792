package swarm

import (
	"mazeswarm/internal/flock"
	"mazeswarm/internal/grid"
	"mazeswarm/internal/pheromone"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/programme"
	"mazeswarm/internal/randstream"
	"mazeswarm/internal/topology"
	"mazeswarm/internal/vecmath"
	"mazeswarm/internal/worldmap"
)

// Kernel is the per-agent tick body. It holds only shared read-mostly
// handles; everything it mutates goes through the map atomics or the Agent
// it returns.
type Kernel struct {
	cfg    Config
	env    Environment
	world  *worldmap.Map
	stream *randstream.Stream
}

func NewKernel(cfg Config, env Environment, world *worldmap.Map, stream *randstream.Stream) *Kernel {
	return &Kernel{cfg: cfg, env: env, world: world, stream: stream}
}

// TickInput is what an agent reads from the previous tick: its own entry,
// its cohort sums and its avoidance vector.
type TickInput struct {
	Tick    int
	Prev    Agent
	PosSum  vecmath.Vec
	VelSum  vecmath.Vec
	Members int
	Avoid   vecmath.Vec
}

// AgentAI advances one agent by one tick and returns its next buffer entry.
// It never fails: an agent with nowhere to go keeps its flocking motion and
// is reported stalled.
func (k *Kernel) AgentAI(in TickInput) Agent {
	conn := k.cfg.Connectivity
	prev := in.Prev
	pos := prev.Position
	node := prev.Node()
	regs := prev.Registers.Clone()

	flocking := flock.Impulse(k.cfg.Flock, pos, prev.Velocity, in.PosSum, in.VelSum, in.Members, in.Avoid)

	readings := k.env.Sense(node, regs.Rotation)
	_, ids := topology.Preprocess(readings, regs.Rotation, conn)
	cell := k.world.Cell(node)
	var stalled, wall bool
	if cell != nil {
		stalled, wall = topology.Update(cell, conn, topology.Observation{
			Trigrams:     ids,
			Position:     pos,
			Previous:     regs.LastPosition,
			Intended:     regs.Chosen,
			HasPath:      regs.HasPath,
			StallEpsilon: k.cfg.StallEpsilon,
		})
	}
	flags := programme.Flags{
		Stalled:       stalled,
		WallDetected:  wall,
		SameSrcSquare: stalled && programme.SameSource(regs, node),
	}

	arrived := node != regs.Node || regs.Iteration == 0
	forbidden := regs.Forbidden
	arrival, hasArrival := regs.PrevPath, regs.HasPrev
	if node != regs.Node {
		forbidden = 0
		arrival, hasArrival = regs.Chosen, regs.HasPath
	}
	paths := planner.GetPaths(k.world, node, forbidden)
	browse := planner.BrowsePassages(k.world, node, paths)

	mode := programme.DecideMode(regs, node, flags, k.cfg.MaxStallTime)
	random := k.stream.At(prev.ID, in.Tick)
	var choice planner.Choice
	var chosen bool
	if mode == programme.Exploring {
		choice, chosen = planner.ChoosePassage(k.world, node, browse, paths, k.cfg.Planner, arrival, hasArrival, random)
	}
	dir, has := programme.Steer(regs, mode, choice, chosen, conn)

	impulse := k.GetImpulse(prev, dir, has, readings.Below)
	if has {
		// Flocking may bend the path but never cancel it.
		flocking = flocking.Limit(k.cfg.FlockShare * k.speed(readings.Below))
	}
	velocity := flocking.Add(impulse).Limit(k.cfg.MaxSpeed).Sanitize()

	programme.Update(&regs, programme.UpdateInput{
		Node:      node,
		Position:  pos,
		Conn:      conn,
		Mode:      mode,
		Flags:     flags,
		Direction: dir,
		HasPath:   has,
		Kind:      choice.Kind,
		Random:    random,
		AtGoal:    node == k.cfg.Goal,
	})

	carried := prev.Carried
	if arrived {
		carried = pheromone.UpdatePheromoneLevels(k.world, node, k.cfg.Pheromone, browse.Unexplored, carried)
	}
	pheromone.UpdateNodeStatus(k.world, node, paths.LivePassages(), browse.Unexplored)

	return Agent{
		ID:        prev.ID,
		Position:  pos.Add(velocity),
		Velocity:  velocity,
		Carried:   carried,
		Registers: regs,
		Mode:      mode,
		Hits:      prev.Hits,
		HitTicks:  prev.HitTicks,
	}
}

// GetImpulse turns the chosen direction into a movement impulse: the unit
// direction scaled by speed, slowed down on swamp, plus a traction pull
// toward the centre line of the lane.
func (k *Kernel) GetImpulse(prev Agent, dir grid.Direction, has bool, below topology.Terrain) vecmath.Vec {
	if !has {
		return vecmath.New(len(prev.Position))
	}
	delta := k.cfg.Connectivity.Delta(dir)
	heading := vecmath.Of(float32(delta.DX), float32(delta.DY)).Normalize(vecmath.DefaultEpsilon)
	out := heading.Scale(k.speed(below))

	cx, cy := grid.Center(prev.Node())
	pull := vecmath.Of(cx, cy).Sub(prev.Position)
	lateral := pull.Sub(heading.Scale(pull.Dot(heading)))
	return out.Add(lateral.Scale(k.cfg.Traction))
}

func (k *Kernel) speed(below topology.Terrain) float32 {
	if below == topology.Swamp {
		return k.cfg.Speed * k.cfg.SwampSlowdown
	}
	return k.cfg.Speed
}
