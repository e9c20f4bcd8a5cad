package routing

import (
	"container/heap"
	"math"
)

// relaxTolerance is the relative improvement below which a relaxation is
// ignored. Without it, rounding can make a detour through a collinear stop
// look a few ulps shorter than the direct edge.
const relaxTolerance = 1e-12

type queueItem struct {
	node     int
	priority float64
	// order is the insertion counter; equal priorities pop in insertion order
	order int
	index int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority == pq[j].priority {
		return pq[i].order < pq[j].order
	}
	return pq[i].priority < pq[j].priority
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestDistance runs Dijkstra from source and returns the shortest
// distance to target, or +Inf when target is unreachable. The search stops
// as soon as target is popped from the queue.
func (g *RouteGraph) ShortestDistance(source, target int) float64 {
	if source == target {
		return 0
	}

	dist := make([]float64, len(g.ids))
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	settled := make([]bool, len(g.ids))
	queued := make(map[int]*queueItem)

	pq := make(priorityQueue, 0, len(g.ids))
	order := 0
	dist[source] = 0
	start := &queueItem{node: source, priority: 0, order: order}
	heap.Push(&pq, start)
	queued[source] = start

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(*queueItem)
		delete(queued, cur.node)
		if cur.node == target {
			return cur.priority
		}
		settled[cur.node] = true

		for _, e := range g.edges[cur.node] {
			if settled[e.to] {
				continue
			}
			tentative := dist[cur.node] + e.weight
			if tentative >= dist[e.to]*(1-relaxTolerance) {
				continue
			}
			dist[e.to] = tentative
			order++
			if item, ok := queued[e.to]; ok {
				// decrease-key: the item is re-stamped as if freshly inserted
				item.priority = tentative
				item.order = order
				heap.Fix(&pq, item.index)
				continue
			}
			item := &queueItem{node: e.to, priority: tentative, order: order}
			heap.Push(&pq, item)
			queued[e.to] = item
		}
	}
	return math.Inf(1)
}
