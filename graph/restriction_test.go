package graph

import (
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func TestStore_restrictionParts(t *testing.T) {
	// Arrange
	store := simpleGraph(t)
	relation := serverRelation(30, osm.Tags{"type": "restriction", "restriction": "no_left_turn"},
		wayMember(10, RoleFrom), nodeMember(2, RoleVia), wayMember(11, RoleTo))
	mustMerge(t, store, &Batch{Relations: []*osm.Relation{relation}})

	// Act
	parts := store.RestrictionParts(relation)

	// Assert
	util.AssertEqual(t, []*osm.Way{store.Way(10)}, parts.From)
	util.AssertEqual(t, []*osm.Way{store.Way(11)}, parts.To)
	util.AssertEqual(t, []*osm.Node{store.Node(2)}, parts.ViaNodes)
	util.AssertLen(t, 0, parts.ViaWays)
	util.AssertFalse(t, parts.IsUTurn())
	util.AssertEqual(t, map[osm.ID]bool{2: true}, store.KeyNodes(parts))
	util.AssertLen(t, 1, store.RestrictionsOf(store.Way(10)))
	util.AssertLen(t, 1, store.RestrictionsTouchingNode(store.Node(4)))
	util.AssertLen(t, 0, store.RestrictionsOf(store.Node(1)))
}

func TestStore_restrictionKeyNodesOfViaWay(t *testing.T) {
	// Arrange
	store := newTestStore()
	mustMerge(t, store, &Batch{
		Nodes: []*osm.Node{serverNode(1, 0, 0), serverNode(2, 0, 1), serverNode(3, 0, 2), serverNode(4, 0, 3)},
		Ways:  []*osm.Way{serverWay(10, 1, 2), serverWay(11, 2, 3), serverWay(12, 3, 4)},
		Relations: []*osm.Relation{
			serverRelation(30, osm.Tags{"type": "restriction"}, wayMember(10, RoleFrom), wayMember(11, RoleVia), wayMember(12, RoleTo)),
		},
	})

	// Act
	parts := store.RestrictionParts(store.Relation(30))

	// Assert
	util.AssertEqual(t, map[osm.ID]bool{2: true, 3: true}, store.KeyNodes(parts))
	util.AssertLen(t, 3, parts.MemberWays())
}
