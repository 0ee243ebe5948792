// Package programme holds the private per-agent register set and the rules
// that move it forward one tick.
package programme

import (
	"mazeswarm/internal/grid"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/vecmath"
)

// DefaultMaxStallTime is the number of consecutive stalled ticks tolerated
// before the agent turns back.
const DefaultMaxStallTime = 2

// Registers is owned by one agent and copied between tick buffers.
type Registers struct {
	Node     grid.Node      `json:"node"`
	Target   grid.Node      `json:"target"`
	Chosen   grid.Direction `json:"chosen"`
	HasPath  bool           `json:"has_path"`
	PrevPath grid.Direction `json:"prev_path"`
	HasPrev  bool           `json:"has_prev"`
	Rotation grid.Direction `json:"rotation"`

	StallTime      int  `json:"stall_time"`
	Stalled        bool `json:"stalled"`
	WallDetected   bool `json:"wall_detected"`
	SameSrcSquare  bool `json:"same_src_square"`
	LeavingDeadend bool `json:"leaving_deadend"`
	GoalReached    bool `json:"goal_reached"`

	Iteration uint64            `json:"iteration"`
	Forbidden grid.DirectionSet `json:"forbidden"`
	Visited   grid.DirectionSet `json:"visited"`

	LastPosition vecmath.Vec `json:"last_position"`
	Random       float32     `json:"random"`
}

// Spawn returns the registers of an agent placed at position on node.
func Spawn(node grid.Node, position vecmath.Vec) Registers {
	return Registers{
		Node:         node,
		Target:       node,
		LastPosition: position.Clone(),
	}
}

// Clone copies r without sharing the position slice.
func (r Registers) Clone() Registers {
	r.LastPosition = r.LastPosition.Clone()
	return r
}

// Mode says what the agent does with its heading this tick.
type Mode uint8

const (
	// Exploring takes a fresh planner decision.
	Exploring Mode = iota
	// Continuing keeps the current heading.
	Continuing
	// Stalled keeps the heading while the stall counter runs.
	Stalled
	// Backtracking reverses the last attempt.
	Backtracking
)

func (m Mode) String() string {
	return [...]string{"exploring", "continuing", "stalled", "backtracking"}[m]
}

// Flags are the per-tick sensor outcomes.
type Flags struct {
	Stalled       bool
	WallDetected  bool
	SameSrcSquare bool
}

// SameSource reports whether an agent following a path is still on the node
// where it took the decision.
func SameSource(r Registers, node grid.Node) bool {
	return r.HasPath && node == r.Node
}

// DecideMode picks the mode for this tick. A new decision is needed on
// arrival at a new node, when there is no path, or when a wall appeared
// ahead.
//
// An agent stalled on the square it decided on is not reversed at once: it
// keeps its heading for maxStall ticks so that flocking inertia and
// collisions can settle, and only then turns back. A stall elsewhere past
// maxStall asks the planner again.
func DecideMode(r Registers, node grid.Node, f Flags, maxStall int) Mode {
	switch {
	case !r.HasPath, node != r.Node, f.WallDetected:
		return Exploring
	case f.Stalled && r.StallTime+1 > maxStall:
		if f.SameSrcSquare {
			return Backtracking
		}
		return Exploring
	case f.Stalled:
		return Stalled
	default:
		return Continuing
	}
}

// Steer resolves the heading for mode. choice and chosen come from the
// planner and are only read when exploring.
func Steer(r Registers, mode Mode, choice planner.Choice, chosen bool, conn grid.Connectivity) (grid.Direction, bool) {
	switch mode {
	case Exploring:
		return choice.Direction, chosen
	case Backtracking:
		return conn.Reverse(r.Chosen), true
	default:
		return r.Chosen, r.HasPath
	}
}
