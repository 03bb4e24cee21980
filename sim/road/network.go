package road

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrUnknownLane is returned when a LaneIndex does not reference a network edge.
	ErrUnknownLane = errors.New("unknown lane")
	// ErrNoRoute is returned when no sequence of edges joins two nodes.
	ErrNoRoute = errors.New("no route")
)

// LaneIndex identifies a lane by its edge (start node, end node) and its
// offset within that edge.
type LaneIndex struct {
	From string
	To   string
	ID   int
}

func (li LaneIndex) String() string {
	return fmt.Sprintf("(%s, %s, %d)", li.From, li.To, li.ID)
}

// Network is a directed graph of named nodes whose edges carry ordered lanes.
// Node and edge insertion order is preserved so that lookups iterating the
// whole network are deterministic.
type Network struct {
	lanes map[string]map[string][]Lane
	order []string            // nodes with outgoing edges, in insertion order
	next  map[string][]string // successor nodes per node, in insertion order

	topology *simple.DirectedGraph
	ids      map[string]int64
	names    map[int64]string
}

// NewNetwork creates an empty road network.
func NewNetwork() *Network {
	return &Network{
		lanes:    make(map[string]map[string][]Lane),
		next:     make(map[string][]string),
		topology: simple.NewDirectedGraph(),
		ids:      make(map[string]int64),
		names:    make(map[int64]string),
	}
}

func (n *Network) node(name string) graph.Node {
	id, ok := n.ids[name]
	if !ok {
		id = int64(len(n.ids))
		n.ids[name] = id
		n.names[id] = name
		n.topology.AddNode(simple.Node(id))
	}
	return simple.Node(id)
}

// AddLane appends a lane to the edge from → to and returns its index.
func (n *Network) AddLane(from, to string, lane Lane) LaneIndex {
	u, v := n.node(from), n.node(to)
	if _, ok := n.lanes[from]; !ok {
		n.lanes[from] = make(map[string][]Lane)
		n.order = append(n.order, from)
	}
	if _, ok := n.lanes[from][to]; !ok {
		n.next[from] = append(n.next[from], to)
		n.topology.SetEdge(n.topology.NewEdge(u, v))
	}
	n.lanes[from][to] = append(n.lanes[from][to], lane)
	return LaneIndex{From: from, To: to, ID: len(n.lanes[from][to]) - 1}
}

// Lane returns the lane referenced by index.
func (n *Network) Lane(index LaneIndex) (Lane, error) {
	lanes := n.lanes[index.From][index.To]
	if index.ID < 0 || index.ID >= len(lanes) {
		return nil, fmt.Errorf("lane %s: %w", index, ErrUnknownLane)
	}
	return lanes[index.ID], nil
}

// Validate returns an error wrapping ErrUnknownLane if index does not
// reference a lane of the network.
func (n *Network) Validate(index LaneIndex) error {
	_, err := n.Lane(index)
	return err
}

// MustLane is Lane for indices known to exist; it panics otherwise.
func (n *Network) MustLane(index LaneIndex) Lane {
	l, err := n.Lane(index)
	if err != nil {
		panic(err)
	}
	return l
}

// Lanes returns the lanes of the edge from → to (nil if absent).
func (n *Network) Lanes(from, to string) []Lane {
	return n.lanes[from][to]
}

// Successors returns the nodes reachable from node through one edge, in
// insertion order.
func (n *Network) Successors(node string) []string {
	if _, ok := n.ids[node]; !ok {
		return nil
	}
	return slices.Clone(n.next[node])
}

// ShortestPath returns the nodes of a route with the fewest edges from start
// to goal, both included. Among equally short routes any one may be
// returned.
func (n *Network) ShortestPath(start, goal string) ([]string, error) {
	from, ok := n.ids[start]
	if !ok {
		return nil, fmt.Errorf("route %s→%s: unknown node %q: %w", start, goal, start, ErrNoRoute)
	}
	to, ok := n.ids[goal]
	if !ok {
		return nil, fmt.Errorf("route %s→%s: unknown node %q: %w", start, goal, goal, ErrNoRoute)
	}
	nodes, _ := path.DijkstraFrom(n.topology.Node(from), n.topology).To(to)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("route %s→%s: %w", start, goal, ErrNoRoute)
	}
	route := make([]string, len(nodes))
	for i, v := range nodes {
		route[i] = n.names[v.ID()]
	}
	return route, nil
}

// Edges returns every (from, to) edge in insertion order.
func (n *Network) Edges() [][2]string {
	var edges [][2]string
	for _, from := range n.order {
		for _, to := range n.next[from] {
			edges = append(edges, [2]string{from, to})
		}
	}
	return edges
}

// LaneIndices returns the index of every lane in the network, in insertion order.
func (n *Network) LaneIndices() []LaneIndex {
	var out []LaneIndex
	for _, e := range n.Edges() {
		for id := range n.lanes[e[0]][e[1]] {
			out = append(out, LaneIndex{From: e[0], To: e[1], ID: id})
		}
	}
	return out
}

// LaneCount returns the total number of lanes in the network.
func (n *Network) LaneCount() int {
	return len(n.LaneIndices())
}

// ClosestLaneIndex returns the lane minimising DistanceWithHeading to
// (p, heading). The first lane wins on ties.
func (n *Network) ClosestLaneIndex(p orb.Point, heading float64) LaneIndex {
	best := LaneIndex{}
	bestDist := math.Inf(1)
	for _, idx := range n.LaneIndices() {
		d := DistanceWithHeading(n.lanes[idx.From][idx.To][idx.ID], p, heading, 1)
		if d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

// NextLane returns the lane a vehicle at p continues on once it reaches the
// end of current. If route (a node sequence) passes through current.To the
// edge toward the following route node is taken; otherwise, when the end
// node has several successors, rng picks one. When the next edge has as many
// lanes as the current one the lane id is kept, otherwise the lane closest to
// p is chosen. At a dead end the current index is returned.
func (n *Network) NextLane(current LaneIndex, route []string, p orb.Point, rng *rand.Rand) LaneIndex {
	successors := n.Successors(current.To)
	if len(successors) == 0 {
		return current
	}
	nextTo, routed := routeNext(route, current.To, successors)
	if !routed {
		nextTo = successors[0]
		if len(successors) > 1 && rng != nil {
			nextTo = successors[rng.Intn(len(successors))]
		}
	}
	lanes := n.lanes[current.To][nextTo]
	if len(lanes) == len(n.lanes[current.From][current.To]) {
		return LaneIndex{From: current.To, To: nextTo, ID: current.ID}
	}
	best := LaneIndex{From: current.To, To: nextTo}
	bestDist := math.Inf(1)
	for id, l := range lanes {
		if d := Distance(l, p); d < bestDist {
			best.ID, bestDist = id, d
		}
	}
	return best
}

// routeNext returns the node following node on route when that node is one
// of successors.
func routeNext(route []string, node string, successors []string) (string, bool) {
	for i := 0; i+1 < len(route); i++ {
		if route[i] != node {
			continue
		}
		for _, s := range successors {
			if s == route[i+1] {
				return s, true
			}
		}
	}
	return "", false
}

// SideLanes returns the indices of the lanes directly left and right of index
// on the same edge.
func (n *Network) SideLanes(index LaneIndex) []LaneIndex {
	lanes := n.lanes[index.From][index.To]
	var out []LaneIndex
	if index.ID > 0 {
		out = append(out, LaneIndex{From: index.From, To: index.To, ID: index.ID - 1})
	}
	if index.ID < len(lanes)-1 {
		out = append(out, LaneIndex{From: index.From, To: index.To, ID: index.ID + 1})
	}
	return out
}
