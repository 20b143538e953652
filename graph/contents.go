package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"osmedit/osm"
)

// Contents is the persistent part of a store. Bounding boxes, way counts, parent relations and the object index are
// derived data and rebuilt by Restore. The undo history is not persisted.
type Contents struct {
	Nodes             []*osm.Node
	Ways              []*osm.Way
	Relations         []*osm.Relation
	LastPlaceholderID osm.ID
}

// Contents returns all objects of the store including deleted ones, which still have to be uploaded.
func (s *Store) Contents() Contents {
	return Contents{
		Nodes:             s.Nodes(),
		Ways:              s.Ways(),
		Relations:         s.Relations(),
		LastPlaceholderID: s.lastPlaceholderID,
	}
}

// Restore fills an empty store with the given contents.
func (s *Store) Restore(contents Contents) error {
	if len(s.nodes)+len(s.ways)+len(s.relations) > 0 {
		return errors.New("Contents can only be restored into an empty store")
	}

	nodes := map[osm.ID]*osm.Node{}
	for _, node := range contents.Nodes {
		if _, ok := nodes[node.ID]; ok {
			return errors.Errorf("Node %d is contained twice", node.ID)
		}
		nodes[node.ID] = node
	}
	ways := map[osm.ID]*osm.Way{}
	for _, way := range contents.Ways {
		if _, ok := ways[way.ID]; ok {
			return errors.Errorf("Way %d is contained twice", way.ID)
		}
		for _, id := range way.Nodes {
			if _, ok := nodes[id]; !ok {
				return errors.Errorf("Way %d references unknown node %d", way.ID, id)
			}
		}
		ways[way.ID] = way
	}
	relations := map[osm.ID]*osm.Relation{}
	for _, relation := range contents.Relations {
		if _, ok := relations[relation.ID]; ok {
			return errors.Errorf("Relation %d is contained twice", relation.ID)
		}
		relations[relation.ID] = relation
	}
	s.nodes, s.ways, s.relations = nodes, ways, relations

	for _, node := range s.nodes {
		node.SetWayCount(0)
	}
	for _, way := range s.ways {
		for _, id := range uniqueIDs(way.Nodes) {
			s.nodes[id].IncreaseWayCount()
		}
	}
	for _, relation := range s.relations {
		for _, member := range relation.Members {
			if memberObject := s.Object(member.ExtendedID()); memberObject != nil {
				memberObject.GetMeta().AddParentRelation(relation.ID)
			}
		}
	}

	for _, obj := range s.allObjects() {
		obj.GetMeta().InvalidateBound()
		s.placeInIndex(obj)
	}

	s.lastPlaceholderID = contents.LastPlaceholderID
	s.generation++
	sigolo.Debugf("Restored %d nodes, %d ways and %d relations", len(s.nodes), len(s.ways), len(s.relations))

	s.debugCheck("restore")
	return nil
}
