package graph

import (
	"github.com/paulmach/orb"
	"osmedit/osm"
	"osmedit/util"
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New(Session{
		User:   "tester",
		UserID: 7,
		Server: "https://api.openstreetmap.org",
		Now: func() time.Time {
			return testNow
		},
	}, DefaultPolicy())
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

func mustMerge(t *testing.T, store *Store, batch *Batch) {
	_, err := store.Merge(batch)
	util.AssertNil(t, err)
	util.AssertNil(t, store.CheckConsistency())
}

// objectState is everything undo and redo have to restore.
type objectState struct {
	Deleted         bool
	ModifyCount     int32
	Tags            osm.Tags
	Lat, Lon        float64
	WayCount        int
	Nodes           []osm.ID
	Members         []osm.Member
	ParentRelations []osm.ID
	Bound           orb.Bound
	BoundValid      bool
}

func captureState(store *Store) map[osm.ExtendedID]objectState {
	state := map[osm.ExtendedID]objectState{}
	for _, obj := range store.allObjects() {
		meta := obj.GetMeta()
		bound, valid := meta.CachedBound()
		objState := objectState{
			Deleted:         meta.Deleted,
			ModifyCount:     meta.ModifyCount,
			Tags:            meta.Tags.Clone(),
			ParentRelations: meta.ParentRelationIDs(),
			Bound:           bound,
			BoundValid:      valid,
		}
		switch o := obj.(type) {
		case *osm.Node:
			objState.Lat, objState.Lon = o.Lat, o.Lon
			objState.WayCount = o.WayCount()
		case *osm.Way:
			objState.Nodes = append([]osm.ID{}, o.Nodes...)
		case *osm.Relation:
			objState.Members = append([]osm.Member{}, o.Members...)
		}
		state[obj.GetExtendedID()] = objState
	}
	return state
}

// simpleGraph contains two ways sharing node 2 and a route relation containing both ways.
//
//	1 ---- 2 ---- 3
//	       |
//	       4
func simpleGraph(t *testing.T) *Store {
	store := newTestStore()
	mustMerge(t, store, &Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 0, 2),
			serverNode(4, -1, 1),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3),
			serverWay(11, 2, 4),
		},
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "route"}, wayMember(10, ""), wayMember(11, "")),
		},
	})
	return store
}
