package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"osmedit/osm"
)

// DiscardStaleData drops the oldest downloaded areas according to the policy and removes all objects that are
// neither waiting for upload, nor within a still downloaded area, nor referenced by kept objects or the undo history.
// The number of removed objects is returned.
func (s *Store) DiscardStaleData() int {
	oldest := s.session.now().Add(-s.policy.MaxQuadAge)
	discardedQuads := s.coverage.DiscardOldestQuads(s.policy.DiscardFraction, oldest)
	if len(discardedQuads) == 0 {
		return 0
	}

	undoRefs := s.undo.ObjectRefs()
	canDiscard := func(obj osm.Object) bool {
		if _, referenced := undoRefs[obj]; referenced {
			return false
		}
		// Local deletions of server objects are pending uploads and must survive.
		return !needsUpload(obj.GetMeta())
	}

	removed := 0
	affectedRelations := map[osm.ID]bool{}
	forget := func(obj osm.Object) {
		for _, id := range obj.GetMeta().ParentRelationIDs() {
			affectedRelations[id] = true
		}
		s.forget(obj)
		removed++
	}

	for _, way := range s.Ways() {
		if !canDiscard(way) {
			continue
		}
		if !way.Deleted && s.coverage.AnyNodeIsCovered(s.wayPoints(way)) {
			continue
		}
		forget(way)
	}

	for _, node := range s.Nodes() {
		if !canDiscard(node) || node.WayCount() > 0 {
			continue
		}
		if !node.Deleted && s.coverage.PointIsCovered(node.Point()) {
			continue
		}
		forget(node)
	}

	for _, relation := range s.Relations() {
		if !canDiscard(relation) {
			continue
		}
		if !relation.Deleted && len(s.AllDirectMembers(relation)) > 0 {
			continue
		}
		forget(relation)
	}

	// Relations with removed members have a smaller bounding box now.
	var relations []osm.Object
	for id := range affectedRelations {
		if relation, ok := s.relations[id]; ok {
			relations = append(relations, relation)
		}
	}
	s.refreshBounds(relations...)

	sigolo.Debugf("Discarded %d quads and %d objects", len(discardedQuads), removed)
	s.generation++
	s.debugCheck("discard")
	return removed
}

func (s *Store) wayPoints(way *osm.Way) []orb.Point {
	points := make([]orb.Point, 0, len(way.Nodes))
	for _, node := range s.NodesOfWay(way) {
		points = append(points, node.Point())
	}
	return points
}

// forget removes the object from the store without an undo entry. Relations keep referencing it as an unknown
// member, just as with relations that were never fully downloaded.
func (s *Store) forget(obj osm.Object) {
	meta := obj.GetMeta()
	if !meta.Deleted {
		s.indexRemove(obj)
	}

	switch o := obj.(type) {
	case *osm.Way:
		for _, id := range uniqueIDs(o.Nodes) {
			if node, ok := s.nodes[id]; ok {
				node.DecreaseWayCount()
			}
		}
		delete(s.ways, o.ID)
	case *osm.Node:
		delete(s.nodes, o.ID)
	case *osm.Relation:
		for _, member := range s.AllDirectMembers(o) {
			member.GetMeta().RemoveParentRelation(o.ID)
		}
		delete(s.relations, o.ID)
	}
}
