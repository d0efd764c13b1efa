package main

import (
	"container/heap"
	"fmt"
	"math"
)

// Cell is a single grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CostGrid is the read-only view of the occupancy grid the planner searches.
// Cost is defined only for in-bounds coordinates; the planner bounds-checks
// before every lookup. A cell is an obstacle when its cost reaches
// ObstacleThreshold.
type CostGrid interface {
	Size() (nx, ny int)
	Cost(x, y int) byte
	ObstacleThreshold() float64
}

// pathNode is one grid cell during search. Identity is the linear index
// id = y*nx + x; cost and pid never participate in identity.
type pathNode struct {
	x, y int
	id   int
	pid  int
	cost float64 // straight-line distance to the goal, not accumulated cost
}

// noJump signals that a ray hit the boundary or an obstacle before finding a
// jump point.
var noJump = pathNode{id: -1, pid: -1}

// motions are the 8 unit steps tried per expansion, axis moves first. The
// order is fixed so equal-cost successors are staged deterministically.
var motions = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// openHeap is the search frontier, ordered by heuristic cost with FIFO
// tie-break via the insertion sequence number. Duplicate entries per
// coordinate are allowed and discarded lazily against the closed set.
type openItem struct {
	node pathNode
	seq  int
}

type openHeap []openItem

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].node.cost != h[j].node.cost {
		return h[i].node.cost < h[j].node.cost
	}
	return h[i].seq < h[j].seq
}

func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x interface{}) { *h = append(*h, x.(openItem)) }

func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PlanPath runs Jump Point Search from start to goal over grid. It returns
// the contiguous cell path from start to goal inclusive, the trace of every
// node ever pushed to the frontier (start first, in push order), and whether
// a path was found. Ordering is greedy best-first on distance-to-goal, so
// the path is not guaranteed shortest.
//
// Both endpoints are assumed in-bounds and free; callers validate. All
// search state is local to the call, so concurrent plans over a shared
// read-only grid are safe.
func PlanPath(grid CostGrid, start, goal Cell) (path []Cell, expanded []Cell, found bool) {
	nx, _ := grid.Size()
	goalID := goal.Y*nx + goal.X

	startNode := pathNode{
		x:    start.X,
		y:    start.Y,
		id:   start.Y*nx + start.X,
		pid:  -1,
		cost: euclidean(start.X, start.Y, goal),
	}

	open := &openHeap{}
	heap.Init(open)
	seq := 0
	heap.Push(open, openItem{node: startNode, seq: seq})
	seq++

	closed := make(map[int]pathNode)
	expanded = append(expanded, start)

	for open.Len() > 0 {
		current := heap.Pop(open).(openItem).node

		// stale duplicate of an already expanded coordinate
		if _, ok := closed[current.id]; ok {
			continue
		}

		if current.id == goalID {
			closed[current.id] = current
			return reconstructPath(closed, goalID), expanded, true
		}

		var staged []pathNode
		for _, m := range motions {
			jp := jump(grid, current, m[0], m[1], goal)
			if jp.id == -1 {
				continue
			}
			if _, ok := closed[jp.id]; ok {
				continue
			}
			jp.pid = current.id
			jp.cost = euclidean(jp.x, jp.y, goal)
			staged = append(staged, jp)
		}

		for _, jp := range staged {
			heap.Push(open, openItem{node: jp, seq: seq})
			seq++
			expanded = append(expanded, Cell{X: jp.x, Y: jp.y})
			if jp.id == goalID {
				break
			}
		}

		closed[current.id] = current
	}

	return nil, expanded, false
}

// jump walks a straight ray from node in direction (dx, dy) and returns the
// next jump point along it: the goal, a cell with a forced neighbor, or (for
// diagonal motion) a cell where one of the two axis components leads to a
// jump point of its own. Returns noJump when the ray leaves the grid or hits
// an obstacle first.
//
// The walk is an explicit loop capped at nx+ny steps, which no straight ray
// through the grid can exceed. The diagonal case probes its axis components
// through the same function; axis probes never recurse further, so call
// depth is constant regardless of map size.
func jump(grid CostGrid, from pathNode, dx, dy int, goal Cell) pathNode {
	nx, ny := grid.Size()
	threshold := grid.ObstacleThreshold()

	x, y := from.x, from.y
	for step := 0; step < nx+ny; step++ {
		x += dx
		y += dy
		if x < 0 || x >= nx || y < 0 || y >= ny {
			return noJump
		}
		if float64(grid.Cost(x, y)) >= threshold {
			return noJump
		}

		cur := pathNode{x: x, y: y, id: y*nx + x, pid: from.id}
		if x == goal.X && y == goal.Y {
			return cur
		}

		// a corridor opening to either side is a decision point
		if dx != 0 && dy != 0 {
			if jump(grid, cur, dx, 0, goal).id != -1 || jump(grid, cur, 0, dy, goal).id != -1 {
				return cur
			}
		}

		if forcedNeighbor(grid, x, y, dx, dy) {
			return cur
		}
	}
	return noJump
}

// forcedNeighbor reports whether the cell (x, y), reached by motion
// (dx, dy), has a neighbor that can only be reached by turning here: an
// adjacent cell is blocked while the cell diagonally past it in the
// direction of travel is open. Out-of-bounds cells count as blocked on the
// blocked side and never count as open on the open side.
func forcedNeighbor(grid CostGrid, x, y, dx, dy int) bool {
	nx, ny := grid.Size()
	threshold := grid.ObstacleThreshold()

	blocked := func(cx, cy int) bool {
		if cx < 0 || cx >= nx || cy < 0 || cy >= ny {
			return true
		}
		return float64(grid.Cost(cx, cy)) >= threshold
	}
	open := func(cx, cy int) bool {
		if cx < 0 || cx >= nx || cy < 0 || cy >= ny {
			return false
		}
		return float64(grid.Cost(cx, cy)) < threshold
	}

	switch {
	case dx != 0 && dy == 0: // horizontal
		if blocked(x, y+1) && open(x+dx, y+1) {
			return true
		}
		if blocked(x, y-1) && open(x+dx, y-1) {
			return true
		}
	case dx == 0 && dy != 0: // vertical
		if blocked(x+1, y) && open(x+1, y+dy) {
			return true
		}
		if blocked(x-1, y) && open(x-1, y+dy) {
			return true
		}
	case dx != 0 && dy != 0: // diagonal
		if blocked(x-dx, y) && open(x-dx, y+dy) {
			return true
		}
		if blocked(x, y-dy) && open(x+dx, y-dy) {
			return true
		}
	}
	return false
}

// reconstructPath walks parent links from the goal back to the start (the
// one node with pid -1), then expands each leg into unit steps. Consecutive
// jump points always lie on a straight 8-connected ray, so the result is the
// full contiguous cell sequence from start to goal. A missing parent means a
// node reached the frontier without a resolvable ancestor chain; that is a
// logic defect, not a runtime condition.
func reconstructPath(closed map[int]pathNode, goalID int) []Cell {
	node, ok := closed[goalID]
	if !ok {
		panic(fmt.Sprintf("path reconstruction: goal id %d missing from closed set", goalID))
	}

	waypoints := []pathNode{node}
	for node.pid != -1 {
		parent, ok := closed[node.pid]
		if !ok {
			panic(fmt.Sprintf("path reconstruction: parent id %d missing from closed set", node.pid))
		}
		waypoints = append(waypoints, parent)
		node = parent
	}

	// waypoints run goal→start; emit start→goal, densifying each leg
	last := waypoints[len(waypoints)-1]
	path := []Cell{{X: last.x, Y: last.y}}
	for i := len(waypoints) - 1; i > 0; i-- {
		from, to := waypoints[i], waypoints[i-1]
		dx, dy := sign(to.x-from.x), sign(to.y-from.y)
		for x, y := from.x, from.y; x != to.x || y != to.y; {
			x += dx
			y += dy
			path = append(path, Cell{X: x, Y: y})
		}
	}
	return path
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func euclidean(x, y int, goal Cell) float64 {
	dx := float64(x - goal.X)
	dy := float64(y - goal.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
