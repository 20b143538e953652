package importing

import (
	"os"
	"osmedit/graph"
	"osmedit/util"
	"path/filepath"
	"testing"
	"time"
)

const testOsmXml = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" version="2" changeset="10" user="mapper" uid="42" lat="53.5" lon="10.0" timestamp="2023-07-01T08:30:00Z"/>
 <node id="2" version="1" changeset="10" lat="53.5" lon="10.1">
  <tag k="highway" v="crossing"/>
 </node>
 <node id="3" version="1" changeset="10" lat="53.5" lon="10.2"/>
 <node id="4" version="1" changeset="11" lat="53.6" lon="10.1">
  <tag k="highway" v="bus_stop"/>
  <tag k="name" v="Main Street"/>
 </node>
 <way id="10" version="3" changeset="10">
  <nd ref="1"/>
  <nd ref="2"/>
  <nd ref="3"/>
  <tag k="highway" v="residential"/>
 </way>
 <relation id="20" version="1" changeset="11">
  <member type="way" ref="10" role="forward"/>
  <member type="node" ref="4" role="stop"/>
  <tag k="type" v="route"/>
 </relation>
</osm>`

func newTestStore() *graph.Store {
	return graph.New(graph.Session{
		User:   "tester",
		UserID: 7,
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}, graph.DefaultPolicy())
}

func writeTestFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	util.AssertNil(t, err)
	return path
}
