// Package maze is the static geometry source used by the simulator: a
// randomized Prim's maze with swamp cells, entrance and exit, sensing in the
// agent body frame and slide-along-wall collision response.
package maze

import (
	"fmt"
	"math/rand"
	"strings"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/topology"
	"mazeswarm/internal/vecmath"
)

type Config struct {
	Width        int               `yaml:"width" json:"width"`
	Height       int               `yaml:"height" json:"height"`
	SwampDensity float64           `yaml:"swamp_density" json:"swamp_density"`
	Connectivity grid.Connectivity `yaml:"connectivity" json:"connectivity"`
	Seed         int64             `yaml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Width:        21,
		Height:       21,
		SwampDensity: 0.1,
		Connectivity: grid.Four,
	}
}

func (c Config) Validate() error {
	if c.Width < 5 || c.Height < 5 {
		return fmt.Errorf("maze must be at least 5x5, got %dx%d", c.Width, c.Height)
	}
	if c.Width%2 == 0 || c.Height%2 == 0 {
		return fmt.Errorf("maze dimensions must be odd, got %dx%d", c.Width, c.Height)
	}
	if c.SwampDensity < 0 || c.SwampDensity > 1 {
		return fmt.Errorf("swamp density must be in [0, 1]")
	}
	if _, err := grid.ParseConnectivity(int(c.Connectivity)); err != nil {
		return err
	}
	return nil
}

type Maze struct {
	bounds   grid.Bounds
	conn     grid.Connectivity
	cells    []topology.Terrain
	entrance grid.Node
	exit     grid.Node
}

// Generate builds a maze from cfg. The same seed always yields the same maze.
func Generate(cfg Config) (*Maze, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &Maze{
		bounds:   grid.Bounds{Width: cfg.Width, Height: cfg.Height},
		conn:     cfg.Connectivity,
		cells:    make([]topology.Terrain, cfg.Width*cfg.Height),
		entrance: grid.Node{X: 1, Y: 0},
		exit:     grid.Node{X: cfg.Width - 2, Y: cfg.Height - 1},
	}
	m.carve(rng)
	m.set(m.entrance, topology.Entrance)
	m.set(m.exit, topology.Exit)

	perQuarter := int(cfg.SwampDensity * float64(cfg.Width*cfg.Height) / 4)
	halfW, halfH := cfg.Width/2, cfg.Height/2
	quarters := [4][4]int{
		{0, halfW, 0, halfH},
		{halfW, cfg.Width, 0, halfH},
		{0, halfW, halfH, cfg.Height},
		{halfW, cfg.Width, halfH, cfg.Height},
	}
	for _, q := range quarters {
		m.flood(rng, perQuarter, q[0], q[1], q[2], q[3])
	}
	return m, nil
}

type frontier struct {
	wall grid.Node
	step grid.Delta
}

// carve runs randomized Prim's from (1,1) over the odd lattice.
func (m *Maze) carve(rng *rand.Rand) {
	start := grid.Node{X: 1, Y: 1}
	m.set(start, topology.Passage)
	var walls []frontier
	add := func(n grid.Node) {
		for _, d := range grid.Four.Deltas() {
			w := n.Step(d)
			if m.bounds.Contains(w) && m.At(w) == topology.Wall {
				walls = append(walls, frontier{wall: w, step: d})
			}
		}
	}
	add(start)
	for len(walls) > 0 {
		i := rng.Intn(len(walls))
		f := walls[i]
		walls[i] = walls[len(walls)-1]
		walls = walls[:len(walls)-1]

		opposite := f.wall.Step(f.step)
		if opposite.X <= 0 || opposite.Y <= 0 || opposite.X >= m.bounds.Width-1 || opposite.Y >= m.bounds.Height-1 {
			continue
		}
		if m.At(opposite) != topology.Wall {
			continue
		}
		m.set(f.wall, topology.Passage)
		m.set(opposite, topology.Passage)
		add(opposite)
	}
}

// flood turns up to n plain passages inside the rectangle into swamp.
func (m *Maze) flood(rng *rand.Rand, n, x0, x1, y0, y1 int) {
	var candidates []grid.Node
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			node := grid.Node{X: x, Y: y}
			if m.At(node) == topology.Passage {
				candidates = append(candidates, node)
			}
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, node := range candidates[:n] {
		m.set(node, topology.Swamp)
	}
}

// Parse reads a maze drawn with '#' walls, '.' passages, '~' swamps,
// 'S' the entrance and 'E' the exit.
func Parse(rows []string, conn grid.Connectivity) (*Maze, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty maze")
	}
	if _, err := grid.ParseConnectivity(int(conn)); err != nil {
		return nil, err
	}
	m := &Maze{
		bounds: grid.Bounds{Width: len(rows[0]), Height: len(rows)},
		conn:   conn,
		cells:  make([]topology.Terrain, len(rows[0])*len(rows)),
	}
	var haveEntrance, haveExit bool
	for y, row := range rows {
		if len(row) != m.bounds.Width {
			return nil, fmt.Errorf("row %d has width %d, want %d", y, len(row), m.bounds.Width)
		}
		for x, ch := range row {
			n := grid.Node{X: x, Y: y}
			switch ch {
			case '#':
				m.set(n, topology.Wall)
			case '.':
				m.set(n, topology.Passage)
			case '~':
				m.set(n, topology.Swamp)
			case 'S':
				m.set(n, topology.Entrance)
				m.entrance, haveEntrance = n, true
			case 'E':
				m.set(n, topology.Exit)
				m.exit, haveExit = n, true
			default:
				return nil, fmt.Errorf("unknown maze symbol %q at %s", ch, n)
			}
		}
	}
	if !haveEntrance || !haveExit {
		return nil, fmt.Errorf("maze needs one entrance 'S' and one exit 'E'")
	}
	return m, nil
}

// Rows renders the maze in the Parse format.
func (m *Maze) Rows() []string {
	rows := make([]string, m.bounds.Height)
	var b strings.Builder
	for y := 0; y < m.bounds.Height; y++ {
		b.Reset()
		for x := 0; x < m.bounds.Width; x++ {
			b.WriteByte(symbol(m.At(grid.Node{X: x, Y: y})))
		}
		rows[y] = b.String()
	}
	return rows
}

func symbol(t topology.Terrain) byte {
	switch t {
	case topology.Passage:
		return '.'
	case topology.Swamp:
		return '~'
	case topology.Entrance:
		return 'S'
	case topology.Exit:
		return 'E'
	default:
		return '#'
	}
}

func (m *Maze) set(n grid.Node, t topology.Terrain) {
	m.cells[m.bounds.Index(n)] = t
}

// At returns the terrain at n. Everything outside the maze is wall.
func (m *Maze) At(n grid.Node) topology.Terrain {
	if !m.bounds.Contains(n) {
		return topology.Wall
	}
	return m.cells[m.bounds.Index(n)]
}

func (m *Maze) Bounds() grid.Bounds {
	return m.bounds
}

func (m *Maze) Connectivity() grid.Connectivity {
	return m.conn
}

func (m *Maze) Entrance() grid.Node {
	return m.entrance
}

func (m *Maze) Exit() grid.Node {
	return m.exit
}

func (m *Maze) Passable(n grid.Node) bool {
	return m.At(n).Open()
}

// FreeCells lists every open node in row order.
func (m *Maze) FreeCells() []grid.Node {
	var out []grid.Node
	for i, t := range m.cells {
		if t.Open() {
			out = append(out, m.bounds.Node(i))
		}
	}
	return out
}

// Sense samples the ring around n in the body frame of an agent facing
// rotation, plus the terrain below it.
func (m *Maze) Sense(n grid.Node, rotation grid.Direction) topology.Readings {
	k := m.conn.N()
	r := topology.Readings{Around: make([]topology.Terrain, k), Below: m.At(n)}
	for i := 0; i < k; i++ {
		d := m.conn.Rotate(rotation, i)
		r.Around[i] = m.At(n.Step(m.conn.Delta(d)))
	}
	return r
}

// Resolve moves a point from one position to another and slides it along
// walls it would enter. The bool reports a wall hit.
func (m *Maze) Resolve(from, to vecmath.Vec) (vecmath.Vec, bool) {
	if len(from) < 2 || len(to) < 2 {
		return from.Clone(), false
	}
	fx, fy, tx, ty := from[0], from[1], to[0], to[1]
	if m.free(tx, ty) && m.free(tx, fy) && m.free(fx, ty) {
		return to.Clone(), false
	}
	out := from.Clone()
	switch {
	case m.free(tx, fy):
		out[0] = tx
	case m.free(fx, ty):
		out[1] = ty
	}
	return out, true
}

func (m *Maze) free(x, y float32) bool {
	return m.Passable(grid.NodeAt(x, y))
}
