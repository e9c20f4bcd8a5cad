package routing

import (
	"fmt"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// DriverNode is the node index of the driver in graphs built by BuildRouteGraph.
const DriverNode = 0

type edge struct {
	to     int
	weight float64
}

// RouteGraph is an undirected weighted graph over the driver and the stops
// of one dispatch. It is built per call and discarded afterwards.
type RouteGraph struct {
	ids   []string
	index map[string]int
	// adjacency list, node -> outgoing edges in insertion order
	edges [][]edge
}

// NewRouteGraph returns an empty graph.
func NewRouteGraph() *RouteGraph {
	return &RouteGraph{index: make(map[string]int)}
}

// AddNode registers id and returns its node index. Adding an id twice
// returns the existing index.
func (g *RouteGraph) AddNode(id string) int {
	if n, ok := g.index[id]; ok {
		return n
	}
	g.ids = append(g.ids, id)
	g.edges = append(g.edges, nil)
	n := len(g.ids) - 1
	g.index[id] = n
	return n
}

// AddEdge connects a and b in both directions.
func (g *RouteGraph) AddEdge(a, b int, weight float64) {
	g.edges[a] = append(g.edges[a], edge{to: b, weight: weight})
	g.edges[b] = append(g.edges[b], edge{to: a, weight: weight})
}

// Node returns the node index for id.
func (g *RouteGraph) Node(id string) (int, bool) {
	n, ok := g.index[id]
	return n, ok
}

// ID returns the identifier of node n.
func (g *RouteGraph) ID(n int) string {
	return g.ids[n]
}

// Len returns the number of nodes.
func (g *RouteGraph) Len() int {
	return len(g.ids)
}

// EdgeCount returns the number of undirected edges.
func (g *RouteGraph) EdgeCount() int {
	total := 0
	for _, out := range g.edges {
		total += len(out)
	}
	return total / 2
}

// BuildRouteGraph assembles the complete graph over the driver and stops,
// weighting every edge with Haversine. The driver is DriverNode and stops
// follow in roster order.
//
// The graph has n(n+1)/2 edges for n stops. That is fine for per-event
// rosters of tens to a few hundred subscribers and is the scaling ceiling of
// this builder.
func BuildRouteGraph(driver domain.Coordinate, stops []domain.Stop) (*RouteGraph, error) {
	g := &RouteGraph{
		ids:   make([]string, 0, len(stops)+1),
		index: make(map[string]int, len(stops)+1),
		edges: make([][]edge, 0, len(stops)+1),
	}
	// The driver has no subscriber id and is not indexed.
	g.ids = append(g.ids, "")
	g.edges = append(g.edges, make([]edge, 0, len(stops)))

	points := make([]domain.Coordinate, 0, len(stops)+1)
	points = append(points, driver)
	for i, s := range stops {
		if s.SubscriberID == "" {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("roster[%d].subscriber_id", i), Reason: "must not be empty"}
		}
		if _, dup := g.index[s.SubscriberID]; dup {
			return nil, &domain.ValidationError{
				Field:  fmt.Sprintf("roster[%d].subscriber_id", i),
				Reason: fmt.Sprintf("duplicate subscriber %q", s.SubscriberID),
			}
		}
		g.ids = append(g.ids, s.SubscriberID)
		g.index[s.SubscriberID] = len(g.ids) - 1
		g.edges = append(g.edges, make([]edge, 0, len(stops)))
		points = append(points, s.Location)
	}

	for a := 0; a < len(points); a++ {
		for b := a + 1; b < len(points); b++ {
			g.AddEdge(a, b, Haversine(points[a], points[b]))
		}
	}
	return g, nil
}
