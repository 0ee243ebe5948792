// Package solver searches the explored part of the shared map for a path
// from the start to the goal. The simulator runs it at every tick boundary
// as its termination check.
package solver

import (
	"container/heap"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/worldmap"
)

// DefaultSwampCost is the step cost of entering a swamp cell.
const DefaultSwampCost = 3.0

type Result struct {
	Found bool
	Path  []grid.Node
	Cost  float64
}

// Solve runs Dijkstra over cells that agents have reached, following only
// passages recorded in the collective memory. The map must not be mutated
// concurrently.
func Solve(m *worldmap.Map, start, goal grid.Node, swampCost float64) Result {
	if swampCost < 1 {
		swampCost = 1
	}
	b := m.Bounds()
	if !reached(m, start) || !reached(m, goal) {
		return Result{}
	}
	dist := make([]float64, b.Cells())
	prev := make([]int, b.Cells())
	for i := range dist {
		dist[i] = -1
		prev[i] = -1
	}
	conn := m.Connectivity()
	startIdx, goalIdx := b.Index(start), b.Index(goal)
	dist[startIdx] = 0
	q := &queue{{idx: startIdx}}
	for q.Len() > 0 {
		it := heap.Pop(q).(item)
		if it.cost > dist[it.idx] {
			continue
		}
		if it.idx == goalIdx {
			break
		}
		node := b.Node(it.idx)
		topo := m.Cell(node).Topology()
		for _, d := range conn.Directions() {
			if !topo.Passage(d) {
				continue
			}
			next, ok := m.Neighbour(node, d)
			if !ok || !reached(m, next) {
				continue
			}
			step := 1.0
			if topo.Swamps.Has(d) {
				step = swampCost
			}
			ni := b.Index(next)
			nd := it.cost + step
			if dist[ni] < 0 || nd < dist[ni] {
				dist[ni] = nd
				prev[ni] = it.idx
				heap.Push(q, item{idx: ni, cost: nd})
			}
		}
	}
	if dist[goalIdx] < 0 {
		return Result{}
	}
	var path []grid.Node
	for i := goalIdx; i >= 0; i = prev[i] {
		path = append(path, b.Node(i))
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return Result{Found: true, Path: path, Cost: dist[goalIdx]}
}

// MarkPath flags every cell of the path as part of the goal route.
func MarkPath(m *worldmap.Map, path []grid.Node) {
	for _, n := range path {
		m.MarkGoal(n)
	}
}

func reached(m *worldmap.Map, n grid.Node) bool {
	c := m.Cell(n)
	return c != nil && c.Status() != worldmap.Unexplored
}

type item struct {
	idx  int
	cost float64
}

type queue []item

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) { *q = append(*q, x.(item)) }
func (q *queue) Pop() interface{} {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
