package programme

import (
	"testing"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/planner"
	"mazeswarm/internal/vecmath"
)

func TestDecideMode(t *testing.T) {
	here := grid.Node{X: 2, Y: 2}
	following := Registers{Node: here, HasPath: true}
	tests := []struct {
		name  string
		regs  Registers
		node  grid.Node
		flags Flags
		want  Mode
	}{
		{name: "no path", regs: Registers{Node: here}, node: here, want: Exploring},
		{name: "arrived", regs: following, node: grid.Node{X: 3, Y: 2}, want: Exploring},
		{name: "wall ahead", regs: following, node: here, flags: Flags{WallDetected: true}, want: Exploring},
		{name: "moving", regs: following, node: here, want: Continuing},
		{name: "stalled", regs: following, node: here, flags: Flags{Stalled: true, SameSrcSquare: true}, want: Stalled},
		{
			name:  "stalled too long",
			regs:  Registers{Node: here, HasPath: true, StallTime: DefaultMaxStallTime},
			node:  here,
			flags: Flags{Stalled: true, SameSrcSquare: true},
			want:  Backtracking,
		},
		{
			name:  "stalled too long off source",
			regs:  Registers{Node: here, HasPath: true, StallTime: DefaultMaxStallTime},
			node:  here,
			flags: Flags{Stalled: true},
			want:  Exploring,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecideMode(tt.regs, tt.node, tt.flags, DefaultMaxStallTime); got != tt.want {
				t.Fatalf("mode = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStallCounterIncrementsOncePerTick(t *testing.T) {
	node := grid.Node{X: 1, Y: 1}
	pos := vecmath.Of(1.5, 1.5)
	r := Spawn(node, pos)
	r.HasPath = true
	r.Chosen = grid.East

	flags := Flags{Stalled: SameSource(r, node), SameSrcSquare: SameSource(r, node)}
	mode := DecideMode(r, node, flags, DefaultMaxStallTime)
	dir, ok := Steer(r, mode, planner.Choice{}, false, grid.Four)
	Update(&r, UpdateInput{Node: node, Position: pos, Conn: grid.Four, Mode: mode, Flags: flags, Direction: dir, HasPath: ok})

	if r.StallTime != 1 || !r.Stalled {
		t.Fatalf("expected stall counter 1, got %d (stalled=%v)", r.StallTime, r.Stalled)
	}
	if r.Iteration != 1 {
		t.Fatalf("iteration = %d", r.Iteration)
	}
	Update(&r, UpdateInput{Node: node, Position: vecmath.Of(1.7, 1.5), Conn: grid.Four, Mode: Continuing, Direction: grid.East, HasPath: true})
	if r.StallTime != 0 || r.Stalled {
		t.Fatalf("expected stall reset after movement, got %d", r.StallTime)
	}
}

func TestBacktrackReversesLastAttempt(t *testing.T) {
	node := grid.Node{X: 1, Y: 1}
	r := Registers{Node: node, HasPath: true, Chosen: grid.East, StallTime: 5}
	flags := Flags{Stalled: true, SameSrcSquare: true}
	mode := DecideMode(r, node, flags, DefaultMaxStallTime)
	if mode != Backtracking {
		t.Fatalf("mode = %s", mode)
	}
	dir, ok := Steer(r, mode, planner.Choice{}, false, grid.Four)
	if !ok || dir != grid.West {
		t.Fatalf("expected reversal to west, got %d ok=%v", dir, ok)
	}
	Update(&r, UpdateInput{Node: node, Position: vecmath.Of(1.5, 1.5), Conn: grid.Four, Mode: mode, Flags: flags, Direction: dir, HasPath: ok})
	if r.Chosen != grid.West || r.Rotation != grid.West || !r.Forbidden.Has(grid.East) || !r.LeavingDeadend {
		t.Fatalf("unexpected registers %+v", r)
	}
}

func TestWallDetectedForbidsDirectionAndArrivalResets(t *testing.T) {
	node := grid.Node{X: 1, Y: 1}
	r := Registers{Node: node, HasPath: true, Chosen: grid.North}
	Update(&r, UpdateInput{
		Node: node, Position: vecmath.Of(1.5, 1.5), Conn: grid.Four, Mode: Exploring,
		Flags: Flags{WallDetected: true}, Direction: grid.South, HasPath: true, Kind: planner.Exploit,
	})
	if !r.Forbidden.Has(grid.North) || r.Chosen != grid.South {
		t.Fatalf("unexpected registers after wall %+v", r)
	}
	if r.Target != (grid.Node{X: 1, Y: 2}) {
		t.Fatalf("target = %v", r.Target)
	}

	next := grid.Node{X: 1, Y: 2}
	Update(&r, UpdateInput{Node: next, Position: vecmath.Of(1.5, 2.5), Conn: grid.Four, Mode: Exploring, Direction: grid.East, HasPath: true})
	if r.Forbidden != 0 || r.Visited != grid.DirectionSet(0).With(grid.East) {
		t.Fatalf("per-node bitmaps not reset on arrival: %+v", r)
	}
	if !r.HasPrev || r.PrevPath != grid.South {
		t.Fatalf("expected arrival direction south, got %+v", r)
	}
}

func TestRotationStaysInRange(t *testing.T) {
	for _, conn := range []grid.Connectivity{grid.Four, grid.Eight} {
		r := Registers{}
		for d := 0; d < 3*conn.N(); d++ {
			Update(&r, UpdateInput{Conn: conn, Mode: Exploring, Direction: grid.Direction(d), HasPath: true})
			if !conn.Valid(r.Rotation) {
				t.Fatalf("rotation %d out of range for %d", r.Rotation, conn)
			}
		}
	}
}
