// Package pheromone deposits and dissolves the two node channels of the
// shared map and advances node exploration status. The attractant is laid
// at frontier nodes and draws agents back toward unexplored passages. The
// marker is left by every arrival and fades slowly, so well-trodden nodes
// lose their pull during exploitation.
package pheromone

import (
	"fmt"
	"strings"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/vecmath"
	"mazeswarm/internal/worldmap"
)

// DecayPolicy selects how pheromone leaves the map.
type DecayPolicy uint8

const (
	// DecayPassive removes Rate and MarkerRate from every cell every tick.
	DecayPassive DecayPolicy = iota
	// DecayOnVisit removes both rates once per revisit recorded during the tick.
	DecayOnVisit
	// DecayNone keeps deposits forever.
	DecayNone
)

func (p DecayPolicy) String() string {
	switch p {
	case DecayPassive:
		return "passive"
	case DecayOnVisit:
		return "on-visit"
	case DecayNone:
		return "none"
	default:
		return fmt.Sprintf("decay(%d)", p)
	}
}

func ParseDecayPolicy(s string) (DecayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passive", "":
		return DecayPassive, nil
	case "on-visit", "onvisit", "visit":
		return DecayOnVisit, nil
	case "none", "off":
		return DecayNone, nil
	default:
		return 0, fmt.Errorf("unknown decay policy %q", s)
	}
}

type Params struct {
	// NodeDeposit is laid per unexplored passage on arrival at a node.
	NodeDeposit float32
	// TrailRefill is the charge an agent picks up at a frontier node.
	TrailRefill float32
	// TrailDecay is the charge an agent loses per square travelled.
	TrailDecay float32
	Policy     DecayPolicy
	// Rate is the attractant dissolved per tick.
	Rate float32
	// MarkerDeposit is laid on every arrival at a node.
	MarkerDeposit float32
	// MarkerRate is the marker dissolved per tick.
	MarkerRate float32
}

func DefaultParams() Params {
	return Params{
		NodeDeposit:   1,
		TrailRefill:   1,
		TrailDecay:    0.01,
		Policy:        DecayPassive,
		Rate:          0.01,
		MarkerDeposit: 1,
		MarkerRate:    0.001,
	}
}

func (p Params) Validate() error {
	if p.NodeDeposit < 0 || p.TrailRefill < 0 || p.TrailDecay < 0 || p.Rate < 0 {
		return fmt.Errorf("pheromone amounts must be >= 0")
	}
	if p.MarkerDeposit < 0 || p.MarkerRate < 0 {
		return fmt.Errorf("pheromone amounts must be >= 0")
	}
	if p.Policy > DecayNone {
		return fmt.Errorf("unknown decay policy %d", p.Policy)
	}
	return nil
}

// UpdatePheromoneLevels runs when an agent arrives at node. Every arrival
// lays MarkerDeposit. Nodes that still offer unexplored passages receive
// NodeDeposit attractant per passage plus the charge the agent carries, and
// refill it. Nodes with nothing left to explore are not reinforced; they
// record a revisit instead. The returned value is the agent's new carried
// charge.
func UpdatePheromoneLevels(m *worldmap.Map, node grid.Node, p Params, unexplored int, carried float32) float32 {
	m.Mark(node, p.MarkerDeposit)
	carried = vecmath.Clamp(carried-p.TrailDecay, 0, m.MaxPheromone())
	if unexplored > 0 {
		m.Deposit(node, p.NodeDeposit*float32(unexplored)+carried)
		return vecmath.Clamp(p.TrailRefill, 0, m.MaxPheromone())
	}
	m.RecordRevisit(node)
	return carried
}

// UpdateNodeStatus advances node one step along unexplored, partial,
// explored: an unexplored node becomes partial, and a partial node becomes
// explored once it has no unexplored passage left. A single call never
// skips a step, so a node seen for the first time is always partial for at
// least one tick. A node with at most one passage that does not lead into a
// dead end becomes a dead end itself, so dead ends fill in from their tips.
// It reports whether the node was newly flagged.
func UpdateNodeStatus(m *worldmap.Map, node grid.Node, livePassages, unexplored int) bool {
	c := m.Cell(node)
	if c == nil {
		return false
	}
	switch c.Status() {
	case worldmap.Unexplored:
		c.RaiseStatus(worldmap.Partial)
	case worldmap.Partial:
		if unexplored == 0 {
			c.RaiseStatus(worldmap.Explored)
		}
	}
	if livePassages <= 1 {
		return m.MarkDeadend(node)
	}
	return false
}

// Dissolve applies the decay policy to the whole map. It runs between ticks
// and never alongside deposits.
func Dissolve(m *worldmap.Map, p Params) {
	switch p.Policy {
	case DecayPassive:
		if p.Rate == 0 && p.MarkerRate == 0 {
			return
		}
		m.Each(func(n grid.Node, c *worldmap.Cell) {
			if p.Rate > 0 && c.Pheromone() > 0 {
				m.Evaporate(n, p.Rate)
			}
			if p.MarkerRate > 0 && c.Marker() > 0 {
				m.Fade(n, p.MarkerRate)
			}
		})
	case DecayOnVisit:
		m.Each(func(n grid.Node, _ *worldmap.Cell) {
			if visits := m.TakeRevisits(n); visits > 0 {
				m.Evaporate(n, p.Rate*float32(visits))
				m.Fade(n, p.MarkerRate*float32(visits))
			}
		})
	}
}
