package io

import (
	"bytes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func node(id osm.ID, lat float64, lon float64) *osm.Node {
	result := osm.NewNode(id, lat, lon)
	result.Version = 1
	return result
}

func way(id osm.ID, tags osm.Tags, nodes ...osm.ID) *osm.Way {
	result := osm.NewWay(id, nodes)
	result.Version = 1
	result.Tags = tags
	return result
}

func testStore(t *testing.T) *graph.Store {
	store := graph.New(graph.Session{User: "tester"}, graph.DefaultPolicy())
	multipolygon := osm.NewRelation(20, []osm.Member{
		{Type: osm.OsmObjWay, Ref: 12, Role: graph.RoleOuter},
		{Type: osm.OsmObjWay, Ref: 13, Role: graph.RoleInner},
	})
	multipolygon.Version = 1
	multipolygon.Tags = osm.Tags{"type": "multipolygon", "landuse": "forest"}
	route := osm.NewRelation(21, []osm.Member{{Type: osm.OsmObjWay, Ref: 10}})
	route.Version = 1
	route.Tags = osm.Tags{"type": "route"}

	_, err := store.Merge(&graph.Batch{
		Nodes: []*osm.Node{
			node(1, 0, 0),
			node(2, 0, 1),
			node(3, 1, 1),
			node(4, 1, 0),
			node(5, 0.2, 0.2),
			node(6, 0.2, 0.8),
			node(7, 0.8, 0.8),
		},
		Ways: []*osm.Way{
			way(10, osm.Tags{"highway": "residential"}, 1, 2, 3),
			way(11, osm.Tags{"building": "yes"}, 1, 2, 3, 4, 1),
			way(12, nil, 1, 4, 3, 2, 1),
			way(13, nil, 5, 6, 7, 5),
		},
		Relations: []*osm.Relation{multipolygon, route},
	})
	util.AssertNil(t, err)
	return store
}

func writeAndParse(t *testing.T, store *graph.Store, objects ...osm.Object) *geojson.FeatureCollection {
	var buf bytes.Buffer
	err := WriteObjectsAsGeoJson(store, objects, &buf)
	util.AssertNil(t, err)

	collection, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	util.AssertNil(t, err)
	return collection
}

func TestWriteObjectsAsGeoJson_nodeAndLine(t *testing.T) {
	// Arrange
	store := testStore(t)
	store.SetTags(store.Node(1), osm.Tags{"amenity": "bench"})

	// Act
	collection := writeAndParse(t, store, store.Node(1), store.Way(10))

	// Assert
	util.AssertLen(t, 2, collection.Features)

	point := collection.Features[0]
	util.AssertEqual(t, orb.Point{0, 0}, point.Geometry)
	util.AssertEqual(t, "n1", point.ID)
	util.AssertEqual(t, "node", point.Properties["osm_type"])
	util.AssertEqual(t, "bench", point.Properties["amenity"])

	line := collection.Features[1]
	util.AssertEqual(t, orb.LineString{{0, 0}, {1, 0}, {1, 1}}, line.Geometry)
	util.AssertEqual(t, "residential", line.Properties["highway"])
}

func TestWriteObjectsAsGeoJson_areaIsCounterClockwisePolygon(t *testing.T) {
	// Arrange
	store := testStore(t)

	// Act
	collection := writeAndParse(t, store, store.Way(11))

	// Assert
	polygon, ok := collection.Features[0].Geometry.(orb.Polygon)
	util.AssertTrue(t, ok)
	util.AssertLen(t, 1, polygon)
	util.AssertEqual(t, orb.CCW, polygon[0].Orientation())
}

func TestWriteObjectsAsGeoJson_multipolygon(t *testing.T) {
	// Arrange
	store := testStore(t)

	// Act
	collection := writeAndParse(t, store, store.Relation(20), store.Relation(21))

	// Assert
	util.AssertLen(t, 1, collection.Features)
	multiPolygon, ok := collection.Features[0].Geometry.(orb.MultiPolygon)
	util.AssertTrue(t, ok)
	util.AssertLen(t, 1, multiPolygon)
	util.AssertLen(t, 2, multiPolygon[0])
	util.AssertEqual(t, orb.CCW, multiPolygon[0][0].Orientation())
	util.AssertEqual(t, orb.CW, multiPolygon[0][1].Orientation())
	util.AssertEqual(t, "forest", collection.Features[0].Properties["landuse"])
}

func TestToFeature_deletedObject(t *testing.T) {
	// Arrange
	store := testStore(t)
	node := store.CreateNode(5, 5)
	store.DeleteNode(node)

	// Act
	feature := ToFeature(store, node)

	// Assert
	util.AssertNil(t, feature)
}
