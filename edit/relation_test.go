package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func multipolygonGraph(t *testing.T) *graph.Store {
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 3),
			serverNode(3, 3, 3),
			serverNode(4, 3, 0),
			serverNode(5, 1, 1),
			serverNode(6, 1, 2),
			serverNode(7, 2, 2),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3, 4, 1),
			serverWay(11, 5, 6, 7, 5),
		},
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "multipolygon"}, wayMember(10, graph.RoleOuter), wayMember(11, graph.RoleInner)),
		},
	})
	return store
}

func TestCanRemoveFromRelation_removesAllEntries(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "route"}, wayMember(10, ""), nodeMember(3, "stop"), wayMember(10, "")),
		},
	})

	// Act
	action, err := CanRemoveFromRelation(store, store.Way(10), store.Relation(20))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.Member{nodeMember(3, "stop")}, store.Relation(20).Members)
	util.AssertEqual(t, 0, store.Way(10).ParentRelationCount())
}

func TestCanRemoveFromRelation_lastMemberDeletesRelation(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "route"}, wayMember(10, "")),
		},
	})

	// Act
	action, err := CanRemoveFromRelation(store, store.Way(10), store.Relation(20))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertTrue(t, store.Relation(20).Deleted)
}

func TestCanRemoveFromRelation_multipolygon(t *testing.T) {
	// Arrange
	store := multipolygonGraph(t)

	// Act & Assert
	action, err := CanRemoveFromRelation(store, store.Way(10), store.Relation(20))
	editError := assertRefused(t, KindRelation, action, err)
	util.AssertEqual(t, "Multipolygon 20 would have no outer way left", editError.Reason)

	action, err = CanRemoveFromRelation(store, store.Way(11), store.Relation(20))
	commitAndCheck(t, store, action, err)
	util.AssertEqual(t, []osm.Member{wayMember(10, graph.RoleOuter)}, store.Relation(20).Members)

	action, err = CanRemoveFromRelation(store, store.Node(1), store.Relation(20))
	assertRefused(t, KindInvalid, action, err)
}

func TestCanAddToRelation_repairsRole(t *testing.T) {
	// Arrange
	store := multipolygonGraph(t)
	action, err := CanRemoveFromRelation(store, store.Way(11), store.Relation(20))
	util.AssertNil(t, err)
	_, err = action.Commit()
	util.AssertNil(t, err)

	// Act
	action, err = CanAddToRelation(store, store.Way(11), store.Relation(20), "")
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.Member{wayMember(10, graph.RoleOuter), wayMember(11, graph.RoleInner)}, store.Relation(20).Members)
}

func TestCanAddToRelation_cycle(t *testing.T) {
	// Arrange
	store := multipolygonGraph(t)
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(21, osm.Tags{"type": "site"}, osm.Member{Type: osm.OsmObjRelation, Ref: 20}),
		},
	})

	// Act
	action, err := CanAddToRelation(store, store.Relation(21), store.Relation(20), "")

	// Assert
	assertRefused(t, KindRelation, action, err)
}

func TestCanSetTags(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	tags := osm.Tags{"highway": "residential", "name": "Main Street"}

	// Act
	action, err := CanSetTags(store, store.Way(10), tags)

	// Assert
	assertRefused(t, KindNoChange, action, err)

	// Act
	tags["maxspeed"] = "30"
	action, err = CanSetTags(store, store.Way(10), tags)
	tags["maxspeed"] = "50"
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, "30", store.Way(10).Tags["maxspeed"])
}

func TestCanDisconnect(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(6, 1, 2),
		},
		Ways: []*osm.Way{
			serverWay(11, 3, 6),
		},
	})

	// Act
	action, err := CanDisconnect(store, store.Node(3), store.Way(11))
	result := commitAndCheck(t, store, action, err)

	// Assert
	copied := result.(*osm.Node)
	util.AssertEqual(t, []osm.ID{copied.ID, 6}, store.Way(11).Nodes)
	util.AssertEqual(t, 1, store.Node(3).WayCount())
	util.AssertEqual(t, 1, copied.WayCount())
	util.AssertEqual(t, store.Node(3).Point(), copied.Point())

	// Act
	action, err = CanDisconnect(store, store.Node(3), store.Way(10))

	// Assert
	assertRefused(t, KindNoChange, action, err)
}

func TestCanDisconnect_restrictionJunction(t *testing.T) {
	// Arrange
	store := restrictionGraph(t)

	// Act
	action, err := CanDisconnect(store, store.Node(3), store.Way(11))

	// Assert
	assertRefused(t, KindRestriction, action, err)
}
