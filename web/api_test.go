package web

import (
	"context"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"net/http"
	"net/http/httptest"
	"osmedit/graph"
	"osmedit/importing"
	"osmedit/osm"
	"osmedit/util"
	"strings"
	"testing"
)

func serverNode(id osm.ID, lat float64, lon float64) *osm.Node {
	node := osm.NewNode(id, lat, lon)
	node.Version = 1
	return node
}

func testStore(t *testing.T) *graph.Store {
	store := graph.New(graph.Session{User: "tester"}, graph.DefaultPolicy())
	way := osm.NewWay(10, []osm.ID{1, 2, 3})
	way.Version = 1
	way.Tags = osm.Tags{"highway": "residential"}
	relation := osm.NewRelation(20, []osm.Member{{Type: osm.OsmObjWay, Ref: 10}, {Type: osm.OsmObjNode, Ref: 4, Role: "stop"}})
	relation.Version = 1
	relation.Tags = osm.Tags{"type": "route"}

	_, err := store.Merge(&graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 0, 2),
			serverNode(4, 5, 5),
		},
		Ways:      []*osm.Way{way},
		Relations: []*osm.Relation{relation},
	})
	util.AssertNil(t, err)
	return store
}

func request(t *testing.T, server *Server, url string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, url, nil))
	return recorder
}

func parseFeatures(t *testing.T, recorder *httptest.ResponseRecorder) []*geojson.Feature {
	util.AssertEqual(t, http.StatusOK, recorder.Code)
	collection, err := geojson.UnmarshalFeatureCollection(recorder.Body.Bytes())
	util.AssertNil(t, err)
	return collection.Features
}

func featureIDs(features []*geojson.Feature) []string {
	var ids []string
	for _, feature := range features {
		ids = append(ids, feature.ID.(string))
	}
	return ids
}

func TestServer_objects(t *testing.T) {
	// Arrange
	server := NewServer(testStore(t), nil, "osmedit")

	// Act
	features := parseFeatures(t, request(t, server, "/objects?bbox=-0.5,-0.5,0.5,0.5"))

	// Assert
	ids := featureIDs(features)
	util.AssertContains(t, "n1", ids)
	util.AssertContains(t, "w10", ids)
	for _, id := range ids {
		util.AssertTrue(t, id != "n4")
	}
}

func TestServer_objectsInvalidBbox(t *testing.T) {
	// Arrange
	server := NewServer(testStore(t), nil, "osmedit")

	// Act
	missing := request(t, server, "/objects")
	invalid := request(t, server, "/objects?bbox=1,2,x,4")
	latitude := request(t, server, "/objects?bbox=0,10,1,-10")

	// Assert
	util.AssertEqual(t, http.StatusBadRequest, missing.Code)
	util.AssertEqual(t, http.StatusBadRequest, invalid.Code)
	util.AssertEqual(t, http.StatusBadRequest, latitude.Code)
}

func TestServer_objectsDownloadsMissingAreas(t *testing.T) {
	// Arrange
	data, err := importing.Read(context.Background(), strings.NewReader(`<osm version="0.6">
 <node id="100" version="1" lat="50.0" lon="8.0"><tag k="amenity" v="bench"/></node>
</osm>`), false)
	util.AssertNil(t, err)
	store := graph.New(graph.Session{User: "tester"}, graph.DefaultPolicy())
	server := NewServer(store, importing.NewDownloader(store, importing.NewFileFetcher(data), 2), "osmedit")

	// Act
	features := parseFeatures(t, request(t, server, "/objects?bbox=7.99,49.99,8.01,50.01"))

	// Assert
	util.AssertEqual(t, []string{"n100"}, featureIDs(features))
	util.AssertLen(t, 0, store.Coverage().PeekMissingPieces(orb.Bound{Min: orb.Point{7.99, 49.99}, Max: orb.Point{8.01, 50.01}}))
}

func TestServer_waysOfNode(t *testing.T) {
	// Arrange
	server := NewServer(testStore(t), nil, "osmedit")

	// Act
	features := parseFeatures(t, request(t, server, "/nodes/2/ways"))
	notFound := request(t, server, "/nodes/99/ways")

	// Assert
	util.AssertEqual(t, []string{"w10"}, featureIDs(features))
	util.AssertEqual(t, http.StatusNotFound, notFound.Code)
}

func TestServer_members(t *testing.T) {
	// Arrange
	server := NewServer(testStore(t), nil, "osmedit")

	// Act
	features := parseFeatures(t, request(t, server, "/relations/20/members"))

	// Assert
	ids := featureIDs(features)
	util.AssertContains(t, "w10", ids)
	util.AssertContains(t, "n4", ids)
}

func TestServer_changes(t *testing.T) {
	// Arrange
	store := testStore(t)
	store.SetTags(store.Way(10), osm.Tags{"highway": "living_street"})
	store.CreateNode(1, 1)
	store.AdvanceRunLoop()
	server := NewServer(store, nil, "osmedit")

	// Act
	recorder := request(t, server, "/changes")

	// Assert
	util.AssertEqual(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	util.AssertTrue(t, strings.Contains(body, "<osmChange"))
	util.AssertTrue(t, strings.Contains(body, `generator="osmedit"`))
	util.AssertTrue(t, strings.Contains(body, `id="-1"`))
	util.AssertTrue(t, strings.Contains(body, `v="living_street"`))
}
