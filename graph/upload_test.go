package graph

import (
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func TestStore_modifiedObjects(t *testing.T) {
	// Arrange
	store := simpleGraph(t)
	store.SetTags(store.Way(10), osm.Tags{"highway": "path"})
	created := store.CreateNode(1, 1)
	discarded := store.CreateNode(2, 2)
	store.DeleteNode(discarded)
	store.DeleteWay(store.Way(11))

	// Act
	modified := store.ModifiedObjects()

	// Assert
	util.AssertEqual(t, []*osm.Node{created}, modified.Nodes)
	util.AssertEqual(t, []*osm.Way{store.Way(10), store.Way(11)}, modified.Ways)
	util.AssertEqual(t, []*osm.Relation{store.Relation(20)}, modified.Relations)
	util.AssertEqual(t, 4, modified.Len())
}

func TestStore_applyUploadResultsMigratesIDs(t *testing.T) {
	// Arrange
	store := simpleGraph(t)
	node := store.CreateNode(0, 3)
	way := store.Way(10)
	store.AddNodeToWay(way, node, 3)
	relation := store.CreateRelation()
	store.AddMemberToRelation(relation, osm.Member{Type: osm.OsmObjNode, Ref: node.ID, Role: "stop"}, 0)
	store.AddMemberToRelation(store.Relation(20), osm.Member{Type: osm.OsmObjRelation, Ref: relation.ID}, 0)
	oldNodeID := node.ID

	// Act
	err := store.ApplyUploadResults([]UploadResult{
		{Type: osm.OsmObjNode, OldID: oldNodeID, NewID: 1000, NewVersion: 1},
		{Type: osm.OsmObjWay, OldID: 10, NewID: 10, NewVersion: 2},
		{Type: osm.OsmObjRelation, OldID: relation.ID, NewID: 2000, NewVersion: 1},
		{Type: osm.OsmObjRelation, OldID: 20, NewID: 20, NewVersion: 2},
	})

	// Assert
	util.AssertNil(t, err)
	util.AssertTrue(t, store.Node(oldNodeID) == nil)
	util.AssertTrue(t, store.Node(1000) == node)
	util.AssertEqual(t, []osm.ID{1, 2, 3, 1000}, way.Nodes)
	util.AssertEqual(t, 2, way.Version)
	util.AssertEqual(t, int32(0), way.ModifyCount)
	util.AssertEqual(t, osm.ID(1000), relation.Members[0].Ref)
	util.AssertTrue(t, store.Relation(2000) == relation)
	util.AssertEqual(t, osm.ID(2000), store.Relation(20).Members[0].Ref)
	util.AssertTrue(t, node.HasParentRelation(2000))
	util.AssertTrue(t, relation.HasParentRelation(20))
	util.AssertFalse(t, store.CanUndo())
	util.AssertEqual(t, 0, store.ModifiedObjects().Len())
	util.AssertNil(t, store.CheckConsistency())
}

func TestStore_applyUploadResultsPurgesDeletions(t *testing.T) {
	// Arrange
	store := simpleGraph(t)
	store.DeleteWay(store.Way(11))
	store.DeleteNode(store.Node(4))

	// Act
	err := store.ApplyUploadResults([]UploadResult{
		{Type: osm.OsmObjWay, OldID: 11},
		{Type: osm.OsmObjNode, OldID: 4},
		{Type: osm.OsmObjRelation, OldID: 20, NewID: 20, NewVersion: 2},
	})

	// Assert
	util.AssertNil(t, err)
	util.AssertTrue(t, store.Way(11) == nil)
	util.AssertTrue(t, store.Node(4) == nil)
	util.AssertNil(t, store.CheckConsistency())
}

func TestStore_applyUploadResultsValidatesFirst(t *testing.T) {
	// Arrange
	store := simpleGraph(t)
	store.SetTags(store.Node(1), osm.Tags{"a": "b"})

	// Act
	err := store.ApplyUploadResults([]UploadResult{
		{Type: osm.OsmObjNode, OldID: 1, NewID: 1, NewVersion: 2},
		{Type: osm.OsmObjNode, OldID: 2},
	})

	// Assert
	util.AssertError(t, "Upload result removes n2 which isn't deleted", err)
	util.AssertEqual(t, 1, store.Node(1).Version)
	util.AssertTrue(t, store.CanUndo())

	err = store.ApplyUploadResults([]UploadResult{{Type: osm.OsmObjNode, OldID: 77, NewID: 78}})
	util.AssertError(t, "Upload result for unknown object n77", err)
}
