package graph

import (
	"fmt"
	"github.com/paulmach/orb"
	"osmedit/osm"
	"strings"
)

// ConsistencyError lists all violated invariants found by CheckConsistency.
type ConsistencyError struct {
	Problems []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%d consistency problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ConsistencyError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// CheckConsistency walks the whole graph and checks that parent relations, way node lists, way counts and the object
// index agree with each other. This is expensive and meant for tests and debug mode.
func (s *Store) CheckConsistency() error {
	result := &ConsistencyError{}

	s.checkParentRelations(result)
	s.checkWays(result)
	s.checkIndex(result)

	if len(result.Problems) > 0 {
		return result
	}
	return nil
}

func (s *Store) allObjects() []osm.Object {
	objects := make([]osm.Object, 0, len(s.nodes)+len(s.ways)+len(s.relations))
	for _, node := range s.Nodes() {
		objects = append(objects, node)
	}
	for _, way := range s.Ways() {
		objects = append(objects, way)
	}
	for _, relation := range s.Relations() {
		objects = append(objects, relation)
	}
	return objects
}

func (s *Store) checkParentRelations(result *ConsistencyError) {
	for _, relation := range s.Relations() {
		for _, member := range relation.Members {
			memberObject := s.Object(member.ExtendedID())
			if memberObject == nil {
				continue
			}
			if !memberObject.GetMeta().HasParentRelation(relation.ID) {
				result.add("member %s of relation %d has no back reference", member.ExtendedID(), relation.ID)
			}
		}
	}

	for _, obj := range s.allObjects() {
		for _, relationID := range obj.GetMeta().ParentRelationIDs() {
			relation, ok := s.relations[relationID]
			if !ok {
				result.add("%s references unknown parent relation %d", obj.GetExtendedID(), relationID)
				continue
			}
			if !relation.HasMember(obj.GetExtendedID()) {
				result.add("%s references parent relation %d which doesn't contain it", obj.GetExtendedID(), relationID)
			}
		}
	}
}

func (s *Store) checkWays(result *ConsistencyError) {
	wayCounts := map[osm.ID]int{}
	for _, way := range s.Ways() {
		contained := map[osm.ID]bool{}
		for i, id := range way.Nodes {
			if i > 0 && way.Nodes[i-1] == id {
				result.add("way %d contains node %d twice in a row at %d", way.ID, id, i)
			}
			if !contained[id] {
				contained[id] = true
				wayCounts[id]++
			}
		}
	}

	for _, node := range s.Nodes() {
		if node.WayCount() != wayCounts[node.ID] {
			result.add("node %d has way count %d but is part of %d ways", node.ID, node.WayCount(), wayCounts[node.ID])
		}
	}
}

func (s *Store) checkIndex(result *ConsistencyError) {
	indexed := map[osm.Object][]orb.Bound{}
	s.index.All(func(obj osm.Object, bound orb.Bound) {
		indexed[obj] = append(indexed[obj], bound)
	})

	for _, obj := range s.allObjects() {
		bounds := indexed[obj]
		delete(indexed, obj)

		if obj.GetMeta().Deleted {
			if len(bounds) != 0 {
				result.add("deleted object %s is in the object index", obj.GetExtendedID())
			}
			continue
		}

		if len(bounds) != 1 {
			result.add("object %s is %d times in the object index", obj.GetExtendedID(), len(bounds))
			continue
		}
		if expected := s.computeBound(obj); bounds[0] != expected {
			result.add("object %s is indexed with %v but has bounding box %v", obj.GetExtendedID(), bounds[0], expected)
		}
		if cached, ok := obj.GetMeta().CachedBound(); !ok || cached != bounds[0] {
			result.add("object %s has cached bounding box %v different from index %v", obj.GetExtendedID(), cached, bounds[0])
		}
	}

	for obj := range indexed {
		result.add("object %s is in the object index but not in the store", obj.GetExtendedID())
	}
}
