package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func TestCanDeleteNode_loneNode(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	node := store.CreateNode(1, 1)
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteNode(store, node)
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, node.Deleted)
}

func TestCanDeleteNode_nodeInRelation(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)
	node := store.CreateNode(1, 1)
	store.AddMemberToRelation(store.Relation(30), osm.Member{Type: osm.OsmObjNode, Ref: node.ID}, 0)
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteNode(store, node)

	// Assert
	assertRefused(t, KindRelation, action, err)
}

func TestCanDeleteWay_deletesUnusedNodes(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)
	store.DeleteRelation(store.Relation(30))
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteWay(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Way(10).Deleted)
	util.AssertTrue(t, store.Node(1).Deleted)
	util.AssertTrue(t, store.Node(2).Deleted)
	util.AssertFalse(t, store.Node(3).Deleted)
	util.AssertEqual(t, 1, store.Node(3).WayCount())
}

func TestCanDeleteWay_keepsTaggedNodes(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	store.SetTags(store.Node(2), osm.Tags{"highway": "bus_stop"})
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteWay(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertFalse(t, store.Node(2).Deleted)
	util.AssertEqual(t, 0, store.Node(2).WayCount())
	util.AssertTrue(t, store.Node(3).Deleted)
}

func TestCanDeleteWay_wayInRoute(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "route", "route": "bus"}, wayMember(10, "")),
		},
	})

	// Act
	action, err := CanDeleteWay(store, store.Way(10))

	// Assert
	editError := assertRefused(t, KindRelation, action, err)
	util.AssertEqual(t, "Way 10 is part of a Route or similar relation", editError.Reason)
}

func TestCanDeleteWay_wayInRestriction(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)

	// Act
	action, err := CanDeleteWay(store, store.Way(10))

	// Assert
	assertRefused(t, KindRelation, action, err)
}

func TestCanDeleteWay_uTurnRestrictionIsDeletedAsWell(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(31, osm.Tags{"type": "restriction", "restriction": "no_u_turn"},
				wayMember(11, graph.RoleFrom), nodeMember(4, graph.RoleVia), wayMember(11, graph.RoleTo)),
		},
	})
	store.DeleteRelation(store.Relation(30))
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteWay(store, store.Way(11))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Way(11).Deleted)
	util.AssertTrue(t, store.Relation(31).Deleted)
}

func TestCanDeleteWay_multipolygonMember(t *testing.T) {
	// Arrange
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 1, 1),
			serverNode(4, 1, 0),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3, 4, 1),
		},
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "multipolygon"}, wayMember(10, graph.RoleOuter)),
		},
	})

	// Act
	action, err := CanDeleteWay(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Way(10).Deleted)
	util.AssertTrue(t, store.Relation(20).Deleted)
	util.AssertTrue(t, store.Node(1).Deleted)
}

func TestCanDeleteNodeFromWay(t *testing.T) {
	// Arrange
	store := lineGraph(t)

	// Act
	action, err := CanDeleteNodeFromWay(store, store.Way(10), store.Node(3))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 2, 4, 5}, store.Way(10).Nodes)
	util.AssertTrue(t, store.Node(3).Deleted)
}

func TestCanDeleteNodeFromWay_firstNodeOfClosedWay(t *testing.T) {
	// Arrange
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 1, 1),
			serverNode(4, 1, 0),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3, 4, 1),
		},
	})

	// Act
	action, err := CanDeleteNodeFromWay(store, store.Way(10), store.Node(1))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{2, 3, 4, 2}, store.Way(10).Nodes)
	util.AssertTrue(t, store.Node(1).Deleted)
}

func TestCanDeleteNodeFromWay_collapsingWayIsDeleted(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)
	store.DeleteRelation(store.Relation(30))
	store.AdvanceRunLoop()

	// Act
	action, err := CanDeleteNodeFromWay(store, store.Way(11), store.Node(4))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Way(11).Deleted)
	util.AssertTrue(t, store.Node(4).Deleted)
	util.AssertEqual(t, 1, store.Node(3).WayCount())
}

func TestCanDeleteNodeFromWay_viaNodeIsRefused(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)

	// Act
	action, err := CanDeleteNodeFromWay(store, store.Way(10), store.Node(3))

	// Assert
	assertRefused(t, KindRestriction, action, err)
}

func TestCanDeleteRelation_keepsMembers(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)

	// Act
	action, err := CanDeleteRelation(store, store.Relation(30))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Relation(30).Deleted)
	util.AssertFalse(t, store.Way(10).Deleted)
	util.AssertEqual(t, 0, store.Way(10).ParentRelationCount())
}
