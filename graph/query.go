package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"osmedit/osm"
	"sort"
)

// FindObjects returns all live objects whose bounding box intersects the area.
func (s *Store) FindObjects(area orb.Bound) []osm.Object {
	var result []osm.Object
	s.index.FindObjects(area, func(obj osm.Object, _ orb.Bound) {
		result = append(result, obj)
	})
	return result
}

// WaysContaining returns all ways having the node in their node list, sorted by ID.
func (s *Store) WaysContaining(node *osm.Node) []*osm.Way {
	if node.WayCount() == 0 {
		return nil
	}

	var ways []*osm.Way
	s.index.FindObjects(node.Point().Bound(), func(obj osm.Object, _ orb.Bound) {
		if way, ok := obj.(*osm.Way); ok && way.ContainsNode(node.ID) {
			ways = append(ways, way)
		}
	})

	if len(ways) != node.WayCount() {
		// Happens when way bounding boxes are about to be updated or the ways are deleted.
		sigolo.Tracef("Index returned %d ways for node %d but way count is %d, scanning all ways", len(ways), node.ID, node.WayCount())
		ways = ways[:0]
		for _, way := range s.ways {
			if way.ContainsNode(node.ID) {
				ways = append(ways, way)
			}
		}
	}

	sort.Slice(ways, func(i, j int) bool {
		return ways[i].ID < ways[j].ID
	})
	return ways
}

// ParentRelations returns the relations having the object as member, sorted by ID.
func (s *Store) ParentRelations(obj osm.Object) []*osm.Relation {
	var relations []*osm.Relation
	for _, id := range obj.GetMeta().ParentRelationIDs() {
		if relation, ok := s.relations[id]; ok {
			relations = append(relations, relation)
		}
	}
	return relations
}

// AllMemberObjects returns every object reachable through the members of the relation, following nested relations.
// Cycles are followed only once. The relation itself is only part of the result when it's a member of itself
// through some cycle.
func (s *Store) AllMemberObjects(relation *osm.Relation) []osm.Object {
	seen := map[osm.ExtendedID]bool{}
	var result []osm.Object

	stack := []*osm.Relation{relation}
	visitedRelations := map[osm.ID]bool{relation.ID: true}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, member := range current.Members {
			id := member.ExtendedID()
			memberObject := s.Object(id)
			if memberObject == nil || seen[id] {
				continue
			}
			seen[id] = true
			result = append(result, memberObject)

			if nested, ok := memberObject.(*osm.Relation); ok && !visitedRelations[nested.ID] {
				visitedRelations[nested.ID] = true
				stack = append(stack, nested)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].GetExtendedID(), result[j].GetExtendedID()
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
	return result
}

// RelationContains returns true when the object is a direct or nested member of the relation.
func (s *Store) RelationContains(relation *osm.Relation, obj osm.Object) bool {
	id := obj.GetExtendedID()
	for _, member := range s.AllMemberObjects(relation) {
		if member.GetExtendedID() == id {
			return true
		}
	}
	return false
}

// IsUninteresting is true for nodes without interesting tags and without any relation membership. Such nodes only
// exist to shape ways.
func (s *Store) IsUninteresting(node *osm.Node) bool {
	return !node.Tags.HasInterestingTags() && node.ParentRelationCount() == 0
}
