package topology

import "sync"

// Terrain is what a sensor reports for one cell.
type Terrain uint8

const (
	Wall Terrain = iota
	Passage
	Swamp
	Entrance
	Exit
)

func (t Terrain) String() string {
	switch t {
	case Wall:
		return "wall"
	case Passage:
		return "passage"
	case Swamp:
		return "swamp"
	case Entrance:
		return "entrance"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Open reports whether an agent may stand on t.
func (t Terrain) Open() bool {
	return t != Wall
}

// code collapses terrain into the three trigram symbols: wall, open, swamp.
func (t Terrain) code() uint8 {
	switch t {
	case Wall:
		return 0
	case Swamp:
		return 2
	default:
		return 1
	}
}

// Class is the canonical shape of a 3-cell window centred on one direction.
type Class uint8

const (
	Blocked Class = iota
	Corridor
	OpenLeft
	OpenRight
	Junction
)

func (c Class) String() string {
	return [...]string{"blocked", "corridor", "open-left", "open-right", "junction"}[c]
}

// TrigramCount is the number of distinct windows over three symbols.
const TrigramCount = 27

type Trigram struct {
	Class Class
	Swamp bool
}

// TrigramTable maps a window id to its classification.
type TrigramTable struct {
	entries [TrigramCount]Trigram
}

var (
	tableOnce sync.Once
	table     *TrigramTable
)

// Table returns the process-wide trigram table, building it on first use.
// The table is immutable afterwards.
func Table() *TrigramTable {
	tableOnce.Do(func() {
		table = buildTable()
	})
	return table
}

func buildTable() *TrigramTable {
	t := &TrigramTable{}
	for left := uint8(0); left < 3; left++ {
		for centre := uint8(0); centre < 3; centre++ {
			for right := uint8(0); right < 3; right++ {
				t.entries[trigramID(left, centre, right)] = classify(left, centre, right)
			}
		}
	}
	return t
}

func classify(left, centre, right uint8) Trigram {
	if centre == 0 {
		return Trigram{Class: Blocked}
	}
	tri := Trigram{Swamp: centre == 2}
	switch {
	case left != 0 && right != 0:
		tri.Class = Junction
	case left != 0:
		tri.Class = OpenLeft
	case right != 0:
		tri.Class = OpenRight
	default:
		tri.Class = Corridor
	}
	return tri
}

func trigramID(left, centre, right uint8) uint8 {
	return left*9 + centre*3 + right
}

// ID returns the window id of (left, centre, right).
func ID(left, centre, right Terrain) uint8 {
	return trigramID(left.code(), centre.code(), right.code())
}

func (t *TrigramTable) Lookup(id uint8) Trigram {
	if int(id) >= TrigramCount {
		return Trigram{Class: Blocked}
	}
	return t.entries[id]
}
