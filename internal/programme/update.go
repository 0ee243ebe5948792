package programme

import (
	"mazeswarm/internal/grid"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/vecmath"
)

type UpdateInput struct {
	Node      grid.Node
	Position  vecmath.Vec
	Conn      grid.Connectivity
	Mode      Mode
	Flags     Flags
	Direction grid.Direction
	HasPath   bool
	Kind      planner.Kind
	Random    float32
	AtGoal    bool
}

// Update advances r by one tick. It runs exactly once per agent per tick.
func Update(r *Registers, in UpdateInput) {
	r.Iteration++

	if in.Flags.Stalled {
		r.StallTime++
	} else {
		r.StallTime = 0
	}
	r.Stalled = in.Flags.Stalled || !in.HasPath
	r.WallDetected = in.Flags.WallDetected
	r.SameSrcSquare = in.Flags.SameSrcSquare

	if in.Node != r.Node {
		r.PrevPath, r.HasPrev = r.Chosen, r.HasPath
		r.Forbidden = 0
		r.Visited = 0
	}
	if in.Flags.WallDetected && r.HasPath {
		r.Forbidden = r.Forbidden.With(r.Chosen)
	}
	if in.Mode == Backtracking {
		r.Forbidden = r.Forbidden.With(r.Chosen)
		r.StallTime = 0
	}

	r.Node = in.Node
	r.HasPath = in.HasPath
	if in.HasPath {
		r.Chosen = grid.Direction(int(in.Direction) % in.Conn.N())
		r.Target = in.Node.Step(in.Conn.Delta(r.Chosen))
		r.Visited = r.Visited.With(r.Chosen)
	} else {
		r.Target = in.Node
	}
	if in.Mode == Exploring || in.Mode == Backtracking {
		r.LeavingDeadend = in.Kind == planner.Backtrack || in.Mode == Backtracking
	}
	r.Rotation = grid.Direction(int(r.Chosen) % in.Conn.N())

	r.LastPosition = in.Position.Clone()
	r.Random = in.Random
	r.GoalReached = r.GoalReached || in.AtGoal
}
