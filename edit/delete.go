package edit

import (
	"osmedit/graph"
	"osmedit/osm"
)

// CanDeleteNode plans deleting a node which is not used by any way or relation.
func CanDeleteNode(store *graph.Store, node *osm.Node) (*Action, error) {
	if node.Deleted {
		return nil, refuse(KindInvalid, "Node %d is already deleted", node.ID)
	}
	if node.WayCount() > 0 {
		return nil, refuse(KindReferenced, "Node %d is part of %d ways", node.ID, node.WayCount())
	}
	if node.ParentRelationCount() > 0 {
		return nil, refuse(KindRelation, "Node %d is part of a relation", node.ID)
	}

	return newAction(store, "delete node", func() osm.Object {
		store.DeleteNode(node)
		return nil
	}, node), nil
}

// CanDeleteNodeFromWay plans removing a vertex from a way. The node itself is deleted when nothing else uses it.
// Ways which would end up with less than two nodes are deleted as well.
func CanDeleteNodeFromWay(store *graph.Store, way *osm.Way, node *osm.Node) (*Action, error) {
	if !way.ContainsNode(node.ID) {
		return nil, refuse(KindInvalid, "Node %d is not part of way %d", node.ID, way.ID)
	}
	for _, restriction := range store.RestrictionsTouchingNode(node) {
		if store.KeyNodes(restriction)[node.ID] {
			return nil, refuse(KindRestriction, "Node %d is the junction of turn restriction %d", node.ID, restriction.Relation.ID)
		}
	}

	remaining := distinctNodeCount(way, node.ID)
	collapses := remaining < 2 || way.IsClosed() && remaining < 3
	if collapses {
		if _, err := CanDeleteWay(store, way); err != nil {
			return nil, err
		}
	}

	return newAction(store, "delete node from way", func() osm.Object {
		if collapses {
			deleteWay(store, way)
		} else {
			removeNodeFromWay(store, way, node)
		}
		deleteIfOrphaned(store, node)
		return nil
	}, way, node), nil
}

func distinctNodeCount(way *osm.Way, without osm.ID) int {
	seen := map[osm.ID]bool{}
	for _, id := range way.Nodes {
		if id != without {
			seen[id] = true
		}
	}
	return len(seen)
}

// CanDeleteWay plans deleting a way together with its nodes that aren't used elsewhere. Ways in relations can only
// be deleted when the relation stays meaningful, which is the case for multipolygons and u-turn restrictions.
func CanDeleteWay(store *graph.Store, way *osm.Way) (*Action, error) {
	if way.Deleted {
		return nil, refuse(KindInvalid, "Way %d is already deleted", way.ID)
	}

	for _, relation := range store.ParentRelations(way) {
		if relation.IsMultipolygon() {
			continue
		}
		if relation.IsRestriction() && store.RestrictionParts(relation).IsUTurn() {
			continue
		}
		return nil, refuse(KindRelation, "Way %d is part of a Route or similar relation", way.ID)
	}

	return newAction(store, "delete way", func() osm.Object {
		deleteWay(store, way)
		return nil
	}, way), nil
}

func deleteWay(store *graph.Store, way *osm.Way) {
	nodes := store.NodesOfWay(way)
	relations := store.ParentRelations(way)

	store.DeleteWay(way)

	for _, relation := range relations {
		deleteIfEmptied(store, relation)
	}
	for _, node := range nodes {
		deleteIfOrphaned(store, node)
	}
}

// deleteIfEmptied removes relations which lost their meaning: empty ones and restrictions without from or to.
func deleteIfEmptied(store *graph.Store, relation *osm.Relation) {
	if relation.Deleted {
		return
	}
	if len(relation.Members) == 0 {
		store.DeleteRelation(relation)
		return
	}
	if relation.IsRestriction() {
		parts := store.RestrictionParts(relation)
		if len(parts.From) == 0 || len(parts.To) == 0 {
			store.DeleteRelation(relation)
		}
	}
}

// CanDeleteRelation plans deleting a relation. Its members are kept.
func CanDeleteRelation(store *graph.Store, relation *osm.Relation) (*Action, error) {
	if relation.Deleted {
		return nil, refuse(KindInvalid, "Relation %d is already deleted", relation.ID)
	}

	return newAction(store, "delete relation", func() osm.Object {
		store.DeleteRelation(relation)
		return nil
	}, relation), nil
}

// CanDelete dispatches to the planner of the object type.
func CanDelete(store *graph.Store, obj osm.Object) (*Action, error) {
	switch o := obj.(type) {
	case *osm.Node:
		return CanDeleteNode(store, o)
	case *osm.Way:
		return CanDeleteWay(store, o)
	case *osm.Relation:
		return CanDeleteRelation(store, o)
	}
	return nil, refuse(KindInvalid, "Unknown object %v", obj)
}
