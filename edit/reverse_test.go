package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func TestReverseTags(t *testing.T) {
	// Arrange
	tags := osm.Tags{
		"highway":           "residential",
		"oneway":            "yes",
		"cycleway:left":     "lane",
		"maxspeed:forward":  "50",
		"maxspeed:backward": "30",
		"incline":           "10%",
		"side":              "right",
		"direction":         "NE",
	}

	// Act
	reversed := reverseTags(tags)

	// Assert
	util.AssertEqual(t, osm.Tags{
		"highway":           "residential",
		"oneway":            "-1",
		"cycleway:right":    "lane",
		"maxspeed:backward": "50",
		"maxspeed:forward":  "30",
		"incline":           "-10%",
		"side":              "left",
		"direction":         "SW",
	}, reversed)
	util.AssertEqual(t, tags, reverseTags(reversed))
}

func TestReverseValue_incline(t *testing.T) {
	util.AssertEqual(t, "5°", reverseValue("incline", "-5°"))
	util.AssertEqual(t, "down", reverseValue("incline", "up"))
	util.AssertEqual(t, "0%", reverseValue("incline", "0%"))
	util.AssertEqual(t, "steep", reverseValue("incline", "steep"))
}

func TestReverseRole(t *testing.T) {
	util.AssertEqual(t, "backward", reverseRole("forward"))
	util.AssertEqual(t, "south", reverseRole("north"))
	util.AssertEqual(t, "west", reverseRole("east"))
	util.AssertEqual(t, "outer", reverseRole("outer"))
	util.AssertEqual(t, "left", reverseRole("left"))
}

func TestCanReverse(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	store.SetTags(store.Way(10), osm.Tags{"highway": "residential", "oneway": "yes"})
	mustMerge(t, store, &graph.Batch{
		Relations: []*osm.Relation{
			serverRelation(20, osm.Tags{"type": "route", "route": "bus"}, wayMember(10, "forward")),
			serverRelation(21, osm.Tags{"type": "route", "route": "road"}, wayMember(10, "north")),
		},
	})
	store.AdvanceRunLoop()

	// Act
	action, err := CanReverse(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{5, 4, 3, 2, 1}, store.Way(10).Nodes)
	util.AssertEqual(t, "-1", store.Way(10).Tags["oneway"])
	util.AssertEqual(t, []osm.Member{wayMember(10, "backward")}, store.Relation(20).Members)
	util.AssertEqual(t, []osm.Member{wayMember(10, "south")}, store.Relation(21).Members)
}

func TestCanReverse_closedWay(t *testing.T) {
	// Arrange
	store := closedWayStore(t, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})

	// Act
	action, err := CanReverse(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 4, 3, 2, 1}, store.Way(10).Nodes)
	for id := osm.ID(1); id <= 4; id++ {
		util.AssertEqual(t, 1, store.Node(id).WayCount())
	}
}
