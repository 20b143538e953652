package io

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"io"
	"os"
	"osmedit/graph"
	"osmedit/osm"
	"time"
)

// Keys marking a closed way as area even though an area is not its usual meaning.
var areaKeys = []string{"area", "building", "landuse", "leisure", "natural", "amenity", "place"}

func WriteObjectsAsGeoJsonFile(store *graph.Store, objects []osm.Object, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", path)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "Unable to close file handle for GeoJSON file %s", file.Name())
		}
	}()

	return WriteObjectsAsGeoJson(store, objects, file)
}

// WriteObjectsAsGeoJson writes one feature per object. Relations other than complete multipolygons have no geometry
// of their own and are skipped.
func WriteObjectsAsGeoJson(store *graph.Store, objects []osm.Object, writer io.Writer) error {
	sigolo.Debug("Write objects to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	for _, obj := range objects {
		feature := ToFeature(store, obj)
		if feature == nil {
			continue
		}
		featureCollection.Features = append(featureCollection.Features, feature)
	}

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal GeoJSON")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON")
	}

	sigolo.Debugf("Finished writing %d features in %s", len(featureCollection.Features), time.Since(writeStartTime))
	return nil
}

// ToFeature returns the GeoJSON feature of the object or nil if it has no geometry.
func ToFeature(store *graph.Store, obj osm.Object) *geojson.Feature {
	if obj.GetMeta().Deleted {
		return nil
	}

	var geometry orb.Geometry
	switch o := obj.(type) {
	case *osm.Node:
		geometry = o.Point()
	case *osm.Way:
		geometry = wayGeometry(store, o)
	case *osm.Relation:
		if !o.IsMultipolygon() {
			return nil
		}
		multiPolygon, ok := multipolygonGeometry(store, o)
		if !ok {
			sigolo.Debugf("Multipolygon %d is incomplete and has no geometry", o.ID)
			return nil
		}
		geometry = multiPolygon
	}
	if geometry == nil {
		return nil
	}

	feature := geojson.NewFeature(geometry)
	feature.ID = obj.GetExtendedID().String()
	feature.Properties["osm_id"] = obj.GetID()
	feature.Properties["osm_type"] = obj.GetType().String()
	feature.Properties["version"] = obj.GetMeta().Version
	for key, value := range obj.GetTags() {
		feature.Properties[key] = value
	}
	return feature
}

func isArea(way *osm.Way) bool {
	if !way.IsClosed() {
		return false
	}
	for _, key := range areaKeys {
		if value, ok := way.Tags[key]; ok && value != "no" {
			return true
		}
	}
	return false
}

func wayGeometry(store *graph.Store, way *osm.Way) orb.Geometry {
	var line orb.LineString
	for _, node := range store.NodesOfWay(way) {
		line = append(line, node.Point())
	}
	if len(line) < 2 {
		return nil
	}

	if isArea(way) {
		ring := orb.Ring(line)
		if ring.Orientation() == orb.CW {
			ring.Reverse()
		}
		return orb.Polygon{ring}
	}
	return line
}

func multipolygonGeometry(store *graph.Store, relation *osm.Relation) (orb.MultiPolygon, bool) {
	rings, complete := store.MultipolygonRings(relation)
	if !complete || len(rings) == 0 {
		return nil, false
	}

	var outer []orb.Ring
	var inner []orb.Ring
	for _, ring := range rings {
		var points orb.Ring
		for _, id := range ring.Nodes {
			points = append(points, store.Node(id).Point())
		}

		if ring.Role == graph.RoleInner {
			if points.Orientation() == orb.CCW {
				points.Reverse()
			}
			inner = append(inner, points)
		} else {
			if points.Orientation() == orb.CW {
				points.Reverse()
			}
			outer = append(outer, points)
		}
	}

	result := make(orb.MultiPolygon, len(outer))
	for i, ring := range outer {
		result[i] = orb.Polygon{ring}
	}
	for _, ring := range inner {
		for i := range result {
			if planar.RingContains(result[i][0], ring[0]) {
				result[i] = append(result[i], ring)
				break
			}
		}
	}
	return result, len(result) > 0
}
