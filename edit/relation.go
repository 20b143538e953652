package edit

import (
	"osmedit/graph"
	"osmedit/osm"
)

// CanRemoveFromRelation plans removing every member entry of the object from the relation. Relations left without
// members are deleted.
func CanRemoveFromRelation(store *graph.Store, obj osm.Object, relation *osm.Relation) (*Action, error) {
	id := obj.GetExtendedID()
	positions := relation.MemberIndexes(id)
	if len(positions) == 0 {
		return nil, refuse(KindInvalid, "%s is not a member of relation %d", id, relation.ID)
	}

	if relation.IsMultipolygon() {
		hasOtherOuter := false
		for _, member := range relation.Members {
			if member.Type == osm.OsmObjWay && member.Role == graph.RoleOuter && member.ExtendedID() != id {
				hasOtherOuter = true
				break
			}
		}
		if !hasOtherOuter {
			return nil, refuse(KindRelation, "Multipolygon %d would have no outer way left", relation.ID)
		}
	}

	return newAction(store, "remove from relation", func() osm.Object {
		for i := len(positions) - 1; i >= 0; i-- {
			store.RemoveMemberFromRelation(relation, positions[i])
		}
		if len(relation.Members) == 0 {
			store.DeleteRelation(relation)
		}
		return relation
	}, obj, relation), nil
}

// CanAddToRelation plans appending the object to the relation.
func CanAddToRelation(store *graph.Store, obj osm.Object, relation *osm.Relation, role string) (*Action, error) {
	if obj.GetMeta().Deleted || relation.Deleted {
		return nil, refuse(KindInvalid, "Deleted objects can't be relation members")
	}
	if other, ok := obj.(*osm.Relation); ok && (other == relation || store.RelationContains(other, relation)) {
		return nil, refuse(KindRelation, "Relation %d can't contain itself", relation.ID)
	}

	member := osm.Member{Type: obj.GetType(), Ref: obj.GetID(), Role: role}
	return newAction(store, "add to relation", func() osm.Object {
		store.AddMemberToRelation(relation, member, len(relation.Members))
		return relation
	}, obj, relation), nil
}

// CanSetTags plans replacing the tags of the object.
func CanSetTags(store *graph.Store, obj osm.Object, tags osm.Tags) (*Action, error) {
	if obj.GetMeta().Deleted {
		return nil, refuse(KindInvalid, "%s is deleted", obj.GetExtendedID())
	}
	if obj.GetTags().Equal(tags) {
		return nil, refuse(KindNoChange, "Tags of %s are unchanged", obj.GetExtendedID())
	}

	tags = tags.Clone()
	return newAction(store, "set tags", func() osm.Object {
		store.SetTags(obj, tags)
		return obj
	}, obj), nil
}

// CanDisconnect plans giving the way its own copy of a node shared with other ways.
func CanDisconnect(store *graph.Store, node *osm.Node, way *osm.Way) (*Action, error) {
	if !way.ContainsNode(node.ID) {
		return nil, refuse(KindInvalid, "Node %d is not part of way %d", node.ID, way.ID)
	}
	if node.WayCount() < 2 {
		return nil, refuse(KindNoChange, "Node %d is not shared with another way", node.ID)
	}
	for _, restriction := range store.RestrictionsOf(way) {
		if store.KeyNodes(restriction)[node.ID] {
			return nil, refuse(KindRestriction, "Node %d is the junction of turn restriction %d", node.ID, restriction.Relation.ID)
		}
	}

	return newAction(store, "disconnect", func() osm.Object {
		copied := store.CreateNode(node.Lat, node.Lon)
		replaceNodeInWay(store, way, node, copied)
		return copied
	}, node, way), nil
}
