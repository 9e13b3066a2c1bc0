package pathfinding

// node is one expanded grid cell of an A* search.
type node struct {
	cell    cell
	g, h, f float64
	parent  *node
	index   int
}

// nodeQueue is a container/heap min-heap on f.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f == q[j].f {
		// Prefer nodes closer to the goal to cut down on ties.
		return q[i].h < q[j].h
	}
	return q[i].f < q[j].f
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}
