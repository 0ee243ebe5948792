// Package grid defines direction arithmetic over a square lattice.
//
// Directions are indexed clockwise starting at North. With four-way
// connectivity the order is N, E, S, W; with eight-way it is
// N, NE, E, SE, S, SW, W, NW. The y axis grows southwards, matching the
// row order of the maze matrix.
package grid

import "fmt"

// MaxDirections bounds the direction count so a DirectionSet fits in a byte.
const MaxDirections = 8

type Direction uint8

// Four-way direction names.
const (
	North Direction = iota
	East
	South
	West
)

// Connectivity is the number of neighbours of a node: 4 or 8.
type Connectivity int

const (
	Four  Connectivity = 4
	Eight Connectivity = 8
)

type Delta struct {
	DX int
	DY int
}

var (
	deltas4 = [4]Delta{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	deltas8 = [8]Delta{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
	names4  = [4]string{"N", "E", "S", "W"}
	names8  = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
)

func ParseConnectivity(n int) (Connectivity, error) {
	switch Connectivity(n) {
	case Four, Eight:
		return Connectivity(n), nil
	default:
		return 0, fmt.Errorf("unsupported connectivity %d: must be 4 or 8", n)
	}
}

func (c Connectivity) N() int {
	return int(c)
}

func (c Connectivity) Valid(d Direction) bool {
	return int(d) < int(c)
}

// Reverse returns the opposite direction. It is a fixed lookup that does not
// depend on any grid state and is its own inverse.
func (c Connectivity) Reverse(d Direction) Direction {
	n := int(c)
	return Direction((int(d) + n/2) % n)
}

// Rotate turns d clockwise by `by` steps, modulo the direction count.
func (c Connectivity) Rotate(d Direction, by int) Direction {
	n := int(c)
	r := (int(d) + by) % n
	if r < 0 {
		r += n
	}
	return Direction(r)
}

func (c Connectivity) Delta(d Direction) Delta {
	if c == Eight {
		return deltas8[int(d)%8]
	}
	return deltas4[int(d)%4]
}

// Deltas returns the coordinate offsets of every direction, in order.
func (c Connectivity) Deltas() []Delta {
	if c == Eight {
		return append([]Delta(nil), deltas8[:]...)
	}
	return append([]Delta(nil), deltas4[:]...)
}

func (c Connectivity) Directions() []Direction {
	out := make([]Direction, int(c))
	for i := range out {
		out[i] = Direction(i)
	}
	return out
}

func (c Connectivity) Name(d Direction) string {
	if !c.Valid(d) {
		return fmt.Sprintf("dir(%d)", d)
	}
	if c == Eight {
		return names8[d]
	}
	return names4[d]
}

// Node addresses one cell of the grid.
type Node struct {
	X int
	Y int
}

func (n Node) Step(d Delta) Node {
	return Node{X: n.X + d.DX, Y: n.Y + d.DY}
}

func (n Node) String() string {
	return fmt.Sprintf("(%d,%d)", n.X, n.Y)
}

// Bounds is the width and height of a grid in cells.
type Bounds struct {
	Width  int
	Height int
}

func (b Bounds) Contains(n Node) bool {
	return n.X >= 0 && n.Y >= 0 && n.X < b.Width && n.Y < b.Height
}

func (b Bounds) Index(n Node) int {
	return n.Y*b.Width + n.X
}

func (b Bounds) Node(index int) Node {
	return Node{X: index % b.Width, Y: index / b.Width}
}

func (b Bounds) Cells() int {
	return b.Width * b.Height
}

// NodeAt returns the cell containing the continuous position (x, y).
func NodeAt(x, y float32) Node {
	return Node{X: floor(x), Y: floor(y)}
}

// Center returns the continuous coordinates of the middle of the cell.
func Center(n Node) (float32, float32) {
	return float32(n.X) + 0.5, float32(n.Y) + 0.5
}

func floor(f float32) int {
	i := int(f)
	if f < 0 && float32(i) != f {
		i--
	}
	return i
}

// DirectionSet is a bitmap of directions.
type DirectionSet uint8

func (s DirectionSet) Has(d Direction) bool {
	return s&(1<<d) != 0
}

func (s DirectionSet) With(d Direction) DirectionSet {
	return s | 1<<d
}

func (s DirectionSet) Without(d Direction) DirectionSet {
	return s &^ (1 << d)
}

func (s DirectionSet) Count() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// All returns the set holding every direction of c.
func All(c Connectivity) DirectionSet {
	return DirectionSet(uint16(1)<<uint(c) - 1)
}
