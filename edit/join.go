package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"slices"
	"strings"
)

// CanJoin plans joining the way with the only other way ending at the given node. The way with a server ID
// survives, the other one is deleted.
func CanJoin(store *graph.Store, way *osm.Way, node *osm.Node) (*Action, error) {
	if way.Deleted {
		return nil, refuse(KindInvalid, "Way %d is deleted", way.ID)
	}
	if way.IsClosed() || !way.IsEndpoint(node.ID) {
		return nil, refuse(KindInvalid, "Node %d is not an endpoint of way %d", node.ID, way.ID)
	}

	var candidates []*osm.Way
	for _, other := range store.WaysContaining(node) {
		if other != way && !other.IsClosed() && other.IsEndpoint(node.ID) {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		return nil, refuse(KindInvalid, "No other way ends at node %d", node.ID)
	}
	if len(candidates) > 1 {
		return nil, refuse(KindAmbiguous, "%d ways end at node %d", len(candidates), node.ID)
	}

	survivor, other := way, candidates[0]
	if survivor.ID.IsPlaceholder() && !other.ID.IsPlaceholder() {
		survivor, other = other, survivor
	}

	// The other way is aligned to continue the survivor at the node.
	otherNodes := slices.Clone(other.Nodes)
	otherTags := other.Tags
	atStart := survivor.FirstNode() == node.ID
	reversed := atStart && other.FirstNode() == node.ID || !atStart && other.LastNode() == node.ID
	if reversed {
		slices.Reverse(otherNodes)
		otherTags = reverseTags(otherTags)
	}

	tags, conflicts := survivor.Tags.Merge(otherTags)
	if len(conflicts) > 0 {
		return nil, refuse(KindTagConflict, "The tags %s of the ways conflict", strings.Join(conflicts, ", "))
	}

	var joined []osm.ID
	if atStart {
		joined = append(otherNodes, survivor.Nodes[1:]...)
	} else {
		joined = append(slices.Clone(survivor.Nodes), otherNodes[1:]...)
	}
	if len(joined) > store.Policy().MaxWayNodes {
		return nil, refuse(KindTooManyNodes, "The joined way would have more than %d nodes", store.Policy().MaxWayNodes)
	}

	for _, restriction := range store.RestrictionsOf(other) {
		if !restriction.Relation.HasMember(survivor.GetExtendedID()) {
			continue
		}
		if !isVia(restriction, survivor) || !isVia(restriction, other) {
			return nil, refuse(KindRestriction, "Both ways are part of turn restriction %d", restriction.Relation.ID)
		}
	}

	return newAction(store, "join", func() osm.Object {
		if !tags.Equal(survivor.Tags) {
			store.SetTags(survivor, tags)
		}
		store.ReplaceWayNodes(survivor, resolveNodes(store, joined))
		replaceMember(store, other, survivor, reversed)
		store.DeleteWay(other)
		return survivor
	}, survivor, other), nil
}

func isVia(restriction graph.Restriction, way *osm.Way) bool {
	for _, via := range restriction.ViaWays {
		if via == way {
			return true
		}
	}
	return false
}

// replaceMember lets all relations of the old object reference the replacement instead. Relations already
// containing the replacement just lose the old object. With reverseRoles the moved members get the opposite
// direction role, as the old way runs against the replacement.
func replaceMember(store *graph.Store, old osm.Object, replacement osm.Object, reverseRoles bool) {
	oldID := old.GetExtendedID()
	replacementID := replacement.GetExtendedID()

	for _, relation := range store.ParentRelations(old) {
		alreadyMember := relation.HasMember(replacementID)
		indexes := relation.MemberIndexes(oldID)
		for i := len(indexes) - 1; i >= 0; i-- {
			position := indexes[i]
			if alreadyMember {
				store.RemoveMemberFromRelation(relation, position)
				continue
			}
			member := relation.Members[position]
			member.Ref = replacementID.ID
			if reverseRoles {
				member.Role = reverseRole(member.Role)
			}
			store.SetMember(relation, position, member)
		}
	}
}
