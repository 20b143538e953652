package graph

import (
	"github.com/hauke96/sigolo/v2"
	"osmedit/osm"
	"slices"
)

// The functions in this file are the only ones changing objects of the store in an undoable way. They are called
// unsafe because they don't check whether the change makes sense from an OSM point of view, that's the job of the
// edit planners. Every primitive registers its inverse before returning. The modification delta is +1 for a regular
// call and -1 when the primitive is performed as the inverse of an earlier call, so undo and redo restore the
// modification counters as well.

func (s *Store) setDeleted(obj osm.Object, deleted bool, delta int32) {
	meta := obj.GetMeta()
	if meta.Deleted == deleted {
		return
	}

	s.registerUndo("set deleted", func() {
		s.setDeleted(obj, !deleted, -delta)
	}, obj)

	if deleted {
		s.indexRemove(obj)
		meta.Deleted = true
	} else {
		meta.Deleted = false
		s.indexAdd(obj)
	}
	meta.ModifyCount += delta
	s.generation++
}

// SetTags replaces all tags of the object.
func (s *Store) SetTags(obj osm.Object, tags osm.Tags) {
	s.setTags(obj, tags.Clone(), 1)
}

func (s *Store) setTags(obj osm.Object, tags osm.Tags, delta int32) {
	meta := obj.GetMeta()
	oldTags := meta.Tags

	s.registerUndo("set tags", func() {
		s.setTags(obj, oldTags, -delta)
	}, obj)

	meta.Tags = tags
	meta.ModifyCount += delta
	s.generation++
}

// SetLatLon moves the node and updates the bounding boxes of all ways and relations containing it.
func (s *Store) SetLatLon(node *osm.Node, lat float64, lon float64) {
	s.setLatLon(node, lat, lon, 1)
}

func (s *Store) setLatLon(node *osm.Node, lat float64, lon float64, delta int32) {
	// The ways are determined before the move, because their bounding boxes in the index are still based on the old
	// location.
	ways := s.WaysContaining(node)
	oldLat, oldLon := node.Lat, node.Lon

	s.registerUndo("set lat/lon", func() {
		s.setLatLon(node, oldLat, oldLon, -delta)
	}, node)

	node.Lat = lat
	node.Lon = lon
	node.ModifyCount += delta
	s.generation++

	objects := []osm.Object{node}
	for _, way := range ways {
		objects = append(objects, way)
	}
	s.refreshBounds(objects...)
}

// AddNodeToWay inserts the node at the given position. Nothing happens when this would place the node next to
// itself.
func (s *Store) AddNodeToWay(way *osm.Way, node *osm.Node, position int) {
	if position > 0 && way.Nodes[position-1] == node.ID || position < len(way.Nodes) && way.Nodes[position] == node.ID {
		sigolo.Debugf("Node %d not added to way %d at %d: would be a consecutive duplicate", node.ID, way.ID, position)
		return
	}
	s.addNodeToWay(way, node, position, 1)
}

func (s *Store) addNodeToWay(way *osm.Way, node *osm.Node, position int, delta int32) {
	s.registerUndo("add node to way", func() {
		s.removeNodeFromWay(way, position, -delta)
	}, way, node)

	alreadyContained := way.ContainsNode(node.ID)
	way.Nodes = slices.Insert(way.Nodes, position, node.ID)
	if !alreadyContained {
		node.IncreaseWayCount()
	}
	way.ModifyCount += delta
	s.generation++

	s.refreshBounds(way)
}

// RemoveNodeFromWay removes the node at the given position. Should the neighbors of the removed node be the same
// node, one of them is removed as well.
func (s *Store) RemoveNodeFromWay(way *osm.Way, position int) {
	s.removeNodeFromWay(way, position, 1)

	if position > 0 && position < len(way.Nodes) && way.Nodes[position-1] == way.Nodes[position] {
		s.removeNodeFromWay(way, position, 1)
	}
}

func (s *Store) removeNodeFromWay(way *osm.Way, position int, delta int32) {
	nodeID := way.Nodes[position]
	node := s.nodes[nodeID]

	s.registerUndo("remove node from way", func() {
		s.addNodeToWay(way, node, position, -delta)
	}, way, node)

	way.Nodes = slices.Delete(way.Nodes, position, position+1)
	if !way.ContainsNode(nodeID) {
		node.DecreaseWayCount()
	}
	way.ModifyCount += delta
	s.generation++

	s.refreshBounds(way)
}

// AddMemberToRelation inserts the member at the given position. Multipolygon roles are repaired afterwards.
func (s *Store) AddMemberToRelation(relation *osm.Relation, member osm.Member, position int) {
	s.addMemberToRelation(relation, member, position, 1)
	s.repairMultipolygonIfNeeded(relation)
}

func (s *Store) addMemberToRelation(relation *osm.Relation, member osm.Member, position int, delta int32) {
	memberObject := s.Object(member.ExtendedID())

	targets := []osm.Object{relation}
	if memberObject != nil {
		targets = append(targets, memberObject)
	}
	s.registerUndo("add member to relation", func() {
		s.removeMemberFromRelation(relation, position, -delta)
	}, targets...)

	relation.Members = slices.Insert(relation.Members, position, member)
	if memberObject != nil {
		memberObject.GetMeta().AddParentRelation(relation.ID)
	}
	relation.ModifyCount += delta
	s.generation++

	s.refreshBounds(relation)
}

// RemoveMemberFromRelation removes the member at the given position. Multipolygon roles are repaired afterwards.
func (s *Store) RemoveMemberFromRelation(relation *osm.Relation, position int) {
	s.removeMemberFromRelation(relation, position, 1)
	s.repairMultipolygonIfNeeded(relation)
}

func (s *Store) removeMemberFromRelation(relation *osm.Relation, position int, delta int32) {
	member := relation.Members[position]
	memberObject := s.Object(member.ExtendedID())

	targets := []osm.Object{relation}
	if memberObject != nil {
		targets = append(targets, memberObject)
	}
	s.registerUndo("remove member from relation", func() {
		s.addMemberToRelation(relation, member, position, -delta)
	}, targets...)

	relation.Members = slices.Delete(relation.Members, position, position+1)
	if memberObject != nil && !relation.HasMember(member.ExtendedID()) {
		memberObject.GetMeta().RemoveParentRelation(relation.ID)
	}
	relation.ModifyCount += delta
	s.generation++

	s.refreshBounds(relation)
}

// SetMember replaces the member at the given position, e.g. to change its role.
func (s *Store) SetMember(relation *osm.Relation, position int, member osm.Member) {
	s.setMember(relation, position, member)
	s.repairMultipolygonIfNeeded(relation)
}

func (s *Store) setMember(relation *osm.Relation, position int, member osm.Member) {
	if relation.Members[position] == member {
		return
	}
	s.addMemberToRelation(relation, member, position+1, 1)
	s.removeMemberFromRelation(relation, position, 1)
}

// DeleteNode removes the node from all ways and relations and marks it as deleted.
func (s *Store) DeleteNode(node *osm.Node) {
	for _, way := range s.WaysContaining(node) {
		for position := way.IndexOf(node.ID); position != -1; position = way.IndexOf(node.ID) {
			s.RemoveNodeFromWay(way, position)
		}
	}
	s.removeFromParentRelations(node)
	s.setDeleted(node, true, 1)
}

// DeleteWay removes the way from all relations, strips all its nodes and marks it as deleted.
func (s *Store) DeleteWay(way *osm.Way) {
	s.removeFromParentRelations(way)
	s.setDeleted(way, true, 1)
	for len(way.Nodes) > 0 {
		s.removeNodeFromWay(way, len(way.Nodes)-1, 1)
	}
}

// DeleteRelation removes the relation from all parent relations, strips all its members and marks it as deleted.
func (s *Store) DeleteRelation(relation *osm.Relation) {
	s.removeFromParentRelations(relation)
	s.setDeleted(relation, true, 1)
	for len(relation.Members) > 0 {
		s.removeMemberFromRelation(relation, len(relation.Members)-1, 1)
	}
}

// Delete dispatches to DeleteNode, DeleteWay or DeleteRelation.
func (s *Store) Delete(obj osm.Object) {
	switch o := obj.(type) {
	case *osm.Node:
		s.DeleteNode(o)
	case *osm.Way:
		s.DeleteWay(o)
	case *osm.Relation:
		s.DeleteRelation(o)
	}
}

func (s *Store) removeFromParentRelations(obj osm.Object) {
	id := obj.GetExtendedID()
	for _, relation := range s.ParentRelations(obj) {
		indexes := relation.MemberIndexes(id)
		for i := len(indexes) - 1; i >= 0; i-- {
			s.removeMemberFromRelation(relation, indexes[i], 1)
		}
		s.repairMultipolygonIfNeeded(relation)
	}
}

// ReplaceWayNodes sets the complete node list of the way. Consecutive duplicates in the new list are dropped.
func (s *Store) ReplaceWayNodes(way *osm.Way, nodes []*osm.Node) {
	for len(way.Nodes) > 0 {
		s.removeNodeFromWay(way, len(way.Nodes)-1, 1)
	}
	for _, node := range nodes {
		if len(way.Nodes) > 0 && way.LastNode() == node.ID {
			continue
		}
		s.addNodeToWay(way, node, len(way.Nodes), 1)
	}
}
