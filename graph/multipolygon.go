package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"osmedit/osm"
	"slices"
)

const (
	RoleOuter = "outer"
	RoleInner = "inner"
)

// Ring is a closed sequence of nodes made of one or more member ways of a multipolygon.
type Ring struct {
	Nodes       []osm.ID
	Ways        []*osm.Way
	Orientation orb.Orientation
	// Role is "inner" when the ring lies within an odd number of other rings and "outer" otherwise.
	Role string
}

type ringSegment struct {
	nodes []osm.ID
	ways  []*osm.Way
}

func (r *ringSegment) first() osm.ID {
	return r.nodes[0]
}

func (r *ringSegment) last() osm.ID {
	return r.nodes[len(r.nodes)-1]
}

func (r *ringSegment) isClosed() bool {
	return len(r.nodes) >= 4 && r.first() == r.last()
}

func reversed(ids []osm.ID) []osm.ID {
	result := slices.Clone(ids)
	slices.Reverse(result)
	return result
}

// MultipolygonRings stitches the way members of the relation into closed rings by joining ways with common
// endpoints. The second return value is false when the rings couldn't be fully reconstructed, e.g. because members
// are missing or a ring has a gap.
func (s *Store) MultipolygonRings(relation *osm.Relation) ([]Ring, bool) {
	complete := true

	var closedSegments []*ringSegment
	var openSegments []*ringSegment
	seenWays := map[osm.ID]bool{}
	for _, member := range relation.Members {
		if member.Type != osm.OsmObjWay || seenWays[member.Ref] {
			continue
		}
		seenWays[member.Ref] = true

		way, ok := s.ways[member.Ref]
		if !ok || way.Deleted || len(way.Nodes) < 2 {
			complete = false
			continue
		}

		segment := &ringSegment{nodes: slices.Clone(way.Nodes), ways: []*osm.Way{way}}
		if segment.isClosed() {
			closedSegments = append(closedSegments, segment)
		} else {
			openSegments = append(openSegments, segment)
		}
	}

	for len(openSegments) > 0 {
		current := openSegments[0]
		openSegments = openSegments[1:]

		for !current.isClosed() {
			merged := false
			for i, other := range openSegments {
				switch {
				case current.last() == other.first():
					current.nodes = append(current.nodes, other.nodes[1:]...)
				case current.last() == other.last():
					current.nodes = append(current.nodes, reversed(other.nodes)[1:]...)
				case current.first() == other.last():
					current.nodes = append(slices.Clone(other.nodes), current.nodes[1:]...)
				case current.first() == other.first():
					current.nodes = append(reversed(other.nodes), current.nodes[1:]...)
				default:
					continue
				}
				current.ways = append(current.ways, other.ways...)
				openSegments = slices.Delete(openSegments, i, i+1)
				merged = true
				break
			}
			if !merged {
				break
			}
		}

		if current.isClosed() {
			closedSegments = append(closedSegments, current)
		} else {
			sigolo.Tracef("Multipolygon %d: ring starting at node %d has a gap", relation.ID, current.first())
			complete = false
		}
	}

	rings := make([]Ring, 0, len(closedSegments))
	polygons := make([]orb.Ring, 0, len(closedSegments))
	for _, segment := range closedSegments {
		polygon := make(orb.Ring, 0, len(segment.nodes))
		for _, id := range segment.nodes {
			node, ok := s.nodes[id]
			if !ok {
				complete = false
				continue
			}
			polygon = append(polygon, node.Point())
		}
		rings = append(rings, Ring{
			Nodes:       segment.nodes,
			Ways:        segment.ways,
			Orientation: polygon.Orientation(),
		})
		polygons = append(polygons, polygon)
	}

	for i := range rings {
		containing := 0
		for j := range rings {
			if i == j {
				continue
			}
			point, ok := s.representativePoint(rings[i].Nodes, rings[j].Nodes)
			if ok && planar.RingContains(polygons[j], point) {
				containing++
			}
		}
		if containing%2 == 1 {
			rings[i].Role = RoleInner
		} else {
			rings[i].Role = RoleOuter
		}
	}

	return rings, complete
}

// representativePoint returns the location of a node of the ring that isn't part of the other ring.
func (s *Store) representativePoint(ring []osm.ID, other []osm.ID) (orb.Point, bool) {
	otherNodes := map[osm.ID]bool{}
	for _, id := range other {
		otherNodes[id] = true
	}
	for _, id := range ring {
		if otherNodes[id] {
			continue
		}
		if node, ok := s.nodes[id]; ok {
			return node.Point(), true
		}
	}
	return orb.Point{}, false
}

func (s *Store) repairMultipolygonIfNeeded(relation *osm.Relation) {
	if !relation.IsMultipolygon() || relation.Deleted || s.isReplaying() {
		return
	}
	s.RepairMultipolygonRoles(relation)
}

// RepairMultipolygonRoles sets the role of every way member to "outer" or "inner" according to the ring it's part
// of. Members with other roles are left alone. Nothing is changed when the rings can't be reconstructed completely.
// The number of changed members is returned.
func (s *Store) RepairMultipolygonRoles(relation *osm.Relation) int {
	rings, complete := s.MultipolygonRings(relation)
	if !complete {
		return 0
	}

	roles := map[osm.ID]string{}
	for _, ring := range rings {
		for _, way := range ring.Ways {
			roles[way.ID] = ring.Role
		}
	}

	changed := 0
	for i, member := range relation.Members {
		if member.Type != osm.OsmObjWay || member.Role != "" && member.Role != RoleOuter && member.Role != RoleInner {
			continue
		}
		role, ok := roles[member.Ref]
		if !ok || role == member.Role {
			continue
		}
		s.setMember(relation, i, osm.Member{Type: member.Type, Ref: member.Ref, Role: role})
		changed++
	}

	if changed > 0 {
		sigolo.Debugf("Multipolygon %d: repaired %d member roles", relation.ID, changed)
	}
	return changed
}
