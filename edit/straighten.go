package edit

import (
	"osmedit/graph"
	"osmedit/osm"
)

// A way is only straightened when no node is further away from the line between its endpoints than this share of
// the line length.
const straightenMaxDeviation = 0.2

// CanStraighten plans moving all nodes of an open way onto the line between its endpoints. Nodes nothing else
// depends on are removed instead.
func CanStraighten(store *graph.Store, way *osm.Way) (*Action, error) {
	if way.IsClosed() {
		return nil, refuse(KindInvalid, "Way %d is closed", way.ID)
	}
	nodes := store.NodesOfWay(way)
	if len(nodes) < 3 {
		return nil, refuse(KindNoChange, "Way %d has no nodes between its endpoints", way.ID)
	}

	proj := newProjection(nodes)
	first := proj.toPlane(nodes[0])
	last := proj.toPlane(nodes[len(nodes)-1])
	length := last.Sub(first).Norm()
	if length == 0 {
		return nil, refuse(KindInvalid, "Endpoints of way %d are at the same location", way.ID)
	}

	type move struct {
		node     *osm.Node
		lat, lon float64
	}
	var moves []move
	var removable []*osm.Node
	for _, node := range nodes[1 : len(nodes)-1] {
		distance, projected := distanceToLine(proj.toPlane(node), first, last)
		if distance > straightenMaxDeviation*length {
			return nil, refuse(KindNotStraight, "Way %d is not sufficiently straight", way.ID)
		}

		if isDisposable(store, node) {
			removable = append(removable, node)
			continue
		}
		if distance > 0 {
			lat, lon := proj.toLatLon(projected)
			moves = append(moves, move{node: node, lat: lat, lon: lon})
		}
	}

	if len(moves) == 0 && len(removable) == 0 {
		return nil, refuse(KindNoChange, "Way %d is already straight", way.ID)
	}

	return newAction(store, "straighten", func() osm.Object {
		for _, m := range moves {
			store.SetLatLon(m.node, m.lat, m.lon)
		}
		for _, node := range removable {
			removeNodeFromWay(store, way, node)
			deleteIfOrphaned(store, node)
		}
		return way
	}, way), nil
}
