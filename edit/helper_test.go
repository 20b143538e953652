package edit

import (
	"fmt"
	"github.com/pkg/errors"
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"strings"
	"testing"
	"time"
)

func newTestStore() *graph.Store {
	return newTestStoreWithPolicy(graph.DefaultPolicy())
}

func newTestStoreWithPolicy(policy graph.Policy) *graph.Store {
	return graph.New(graph.Session{
		User:   "tester",
		UserID: 7,
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}, policy)
}

func serverNode(id osm.ID, lat float64, lon float64) *osm.Node {
	node := osm.NewNode(id, lat, lon)
	node.Version = 1
	return node
}

func serverWay(id osm.ID, nodes ...osm.ID) *osm.Way {
	way := osm.NewWay(id, nodes)
	way.Version = 1
	return way
}

func serverRelation(id osm.ID, tags osm.Tags, members ...osm.Member) *osm.Relation {
	relation := osm.NewRelation(id, members)
	relation.Version = 1
	relation.Tags = tags
	return relation
}

func wayMember(id osm.ID, role string) osm.Member {
	return osm.Member{Type: osm.OsmObjWay, Ref: id, Role: role}
}

func nodeMember(id osm.ID, role string) osm.Member {
	return osm.Member{Type: osm.OsmObjNode, Ref: id, Role: role}
}

func mustMerge(t *testing.T, store *graph.Store, batch *graph.Batch) {
	_, err := store.Merge(batch)
	util.AssertNil(t, err)
	util.AssertNil(t, store.CheckConsistency())
}

// snapshot renders every object into a string containing everything undo and redo have to restore.
func snapshot(store *graph.Store) map[osm.ExtendedID]string {
	state := map[osm.ExtendedID]string{}
	describe := func(obj osm.Object, details string) {
		meta := obj.GetMeta()
		bound, valid := meta.CachedBound()
		state[obj.GetExtendedID()] = fmt.Sprintf("%t|%d|%v|%v|%v|%t|%s", meta.Deleted, meta.ModifyCount, meta.Tags,
			meta.ParentRelationIDs(), bound, valid, details)
	}
	for _, node := range store.Nodes() {
		describe(node, fmt.Sprintf("%v,%v|%d", node.Lat, node.Lon, node.WayCount()))
	}
	for _, way := range store.Ways() {
		describe(way, fmt.Sprintf("%v", way.Nodes))
	}
	for _, relation := range store.Relations() {
		describe(relation, fmt.Sprintf("%v", relation.Members))
	}
	return state
}

// assertState compares both snapshots. Objects only in the actual snapshot were created after the expected one was
// taken and must be deleted.
func assertState(t *testing.T, expected map[osm.ExtendedID]string, actual map[osm.ExtendedID]string) {
	for id, state := range expected {
		util.AssertEqual(t, state, actual[id])
	}
	for id, state := range actual {
		if _, ok := expected[id]; !ok {
			if !strings.HasPrefix(state, "true|") {
				t.Errorf("Object %s should not exist but is %s", id, state)
			}
		}
	}
}

// commitAndCheck commits the action and verifies the consistency of the graph as well as undo and redo of the
// action.
func commitAndCheck(t *testing.T, store *graph.Store, action *Action, err error) osm.Object {
	util.AssertNil(t, err)
	util.AssertNotNil(t, action)

	before := snapshot(store)
	result, err := action.Commit()
	util.AssertNil(t, err)
	util.AssertNil(t, store.CheckConsistency())
	after := snapshot(store)

	_, err = store.Undo()
	util.AssertNil(t, err)
	util.AssertNil(t, store.CheckConsistency())
	assertState(t, before, snapshot(store))

	_, err = store.Redo()
	util.AssertNil(t, err)
	util.AssertNil(t, store.CheckConsistency())
	assertState(t, after, snapshot(store))

	return result
}

func assertRefused(t *testing.T, expectedKind ErrorKind, action *Action, err error) *EditError {
	if action != nil {
		t.Errorf("Expected no action but got '%s'", action.Name())
	}
	var editError *EditError
	if !errors.As(err, &editError) {
		t.Fatalf("Expected edit error but got %v", err)
	}
	util.AssertEqual(t, expectedKind, editError.Kind)
	return editError
}

func liveWays(store *graph.Store) []*osm.Way {
	var ways []*osm.Way
	for _, way := range store.Ways() {
		if !way.Deleted {
			ways = append(ways, way)
		}
	}
	return ways
}

// lineGraph contains the open way 10 with five nodes along the equator.
//
//	1 -- 2 -- 3 -- 4 -- 5
func lineGraph(t *testing.T) *graph.Store {
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 0, 2),
			serverNode(4, 0, 3),
			serverNode(5, 0, 4),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3, 4, 5),
		},
	})
	store.SetTags(store.Way(10), osm.Tags{"highway": "residential", "name": "Main Street"})
	store.AdvanceRunLoop()
	return store
}

// restrictionGraph has a turn restriction from way 10 via node 3 to way 11.
//
//	1 ---- 2 ---- 3
//	              |
//	              4
func restrictionGraph(t *testing.T) *graph.Store {
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 0, 2),
			serverNode(4, -1, 2),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3),
			serverWay(11, 3, 4),
		},
		Relations: []*osm.Relation{
			serverRelation(30, osm.Tags{"type": "restriction", "restriction": "no_left_turn"},
				wayMember(10, graph.RoleFrom), nodeMember(3, graph.RoleVia), wayMember(11, graph.RoleTo)),
		},
	})
	return store
}
