// Package lens narrows the concept map to the neighbourhood of selected
// concepts for the web view.
package lens

import (
	"errors"
	"fmt"

	"github.com/ritzau/cmap-bc/pkg/model"
)

// Infinite is the distance of a vertex not connected to any selected vertex
const Infinite = -1

// ErrUnknownVertex is returned when a selected vertex is not in the graph
var ErrUnknownVertex = errors.New("unknown vertex")

// distanceQueueNode is a vertex in the BFS queue
type distanceQueueNode struct {
	vertexID string
	distance int
}

// ComputeDistances returns the shortest distance from each vertex to the
// nearest selected vertex. Edge direction is ignored; unreached vertices
// get Infinite.
func ComputeDistances(g *model.Graph, selected []string) (map[string]int, error) {
	distances := make(map[string]int, g.Len())

	queue := make([]distanceQueueNode, 0, len(selected))
	for _, id := range selected {
		if _, ok := g.Vertex(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVertex, id)
		}
		distances[id] = 0
		queue = append(queue, distanceQueueNode{vertexID: id})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		v, _ := g.Vertex(current.vertexID)
		for _, neighbor := range neighbors(g, v) {
			if _, seen := distances[neighbor.ID]; seen {
				continue
			}
			distances[neighbor.ID] = current.distance + 1
			queue = append(queue, distanceQueueNode{vertexID: neighbor.ID, distance: current.distance + 1})
		}
	}

	for _, v := range g.Vertices() {
		if _, ok := distances[v.ID]; !ok {
			distances[v.ID] = Infinite
		}
	}
	return distances, nil
}

// neighbors returns targets then sources of v
func neighbors(g *model.Graph, v *model.Vertex) []*model.Vertex {
	links := append(g.Targets(v), g.Sources(v)...)
	result := make([]*model.Vertex, len(links))
	for i, l := range links {
		result[i] = l.Vertex
	}
	return result
}

// Focus returns the snapshot restricted to vertices within maxDistance of
// the selection. Every node carries its distance in the metadata.
func Focus(g *model.Graph, selected []string, maxDistance int) (*model.Snapshot, error) {
	distances, err := ComputeDistances(g, selected)
	if err != nil {
		return nil, err
	}
	visible := func(id string) bool {
		d := distances[id]
		return d != Infinite && d <= maxDistance
	}

	full := g.Snapshot()
	focused := &model.Snapshot{
		Nodes: make([]*model.Node, 0, len(full.Nodes)),
		Edges: make([]*model.Edge, 0, len(full.Edges)),
	}
	for _, n := range full.Nodes {
		if !visible(n.ID) {
			continue
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]interface{})
		}
		n.Metadata["distance"] = distances[n.ID]
		focused.Nodes = append(focused.Nodes, n)
	}
	for _, e := range full.Edges {
		if visible(e.Source) && visible(e.Target) {
			focused.Edges = append(focused.Edges, e)
		}
	}
	return focused, nil
}
