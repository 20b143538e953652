package edit

import (
	"math"
	"osmedit/graph"
	"osmedit/osm"
	"osmedit/util"
	"testing"
)

func closedWayStore(t *testing.T, coordinates [][2]float64) *graph.Store {
	store := newTestStore()
	batch := &graph.Batch{}
	var ids []osm.ID
	for i, coordinate := range coordinates {
		id := osm.ID(i + 1)
		batch.Nodes = append(batch.Nodes, serverNode(id, coordinate[1], coordinate[0]))
		ids = append(ids, id)
	}
	batch.Ways = append(batch.Ways, serverWay(10, append(ids, ids[0])...))
	mustMerge(t, store, batch)
	return store
}

func TestCanOrthogonalize_nearRectangle(t *testing.T) {
	// Arrange
	store := closedWayStore(t, [][2]float64{{0, 0}, {10, 0.3}, {10.2, 10}, {-0.1, 9.8}})
	way := store.Way(10)
	nodes := uniqueRing(store, way)
	proj := newProjection(nodes)
	original := proj.toPlaneAll(nodes)
	// Distance of the corners from forming a parallelogram, no corner has to move further than that.
	deviation := original[0].Add(original[2]).Sub(original[1]).Sub(original[3]).Norm()

	// Act
	action, err := CanOrthogonalize(store, way)
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertLen(t, 5, way.Nodes)
	squared := proj.toPlaneAll(uniqueRing(store, way))
	score, ok := squareness(squared)
	util.AssertTrue(t, ok)
	util.AssertTrue(t, score < orthogonalizeEpsilon)
	for i := range squared {
		dotp := normalizedDotProduct(squared[(i+3)%4], squared[i], squared[(i+1)%4])
		util.AssertApprox(t, 0, dotp, 1e-4)
		util.AssertTrue(t, squared[i].Sub(original[i]).Norm() <= deviation)
	}
}

func TestCanOrthogonalize_removesStraightNodes(t *testing.T) {
	// Arrange
	store := closedWayStore(t, [][2]float64{{0, 0}, {0.5, 0.01}, {1, 0.02}, {1.01, 1}, {0, 0.98}})

	// Act
	action, err := CanOrthogonalize(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 3, 4, 5, 1}, store.Way(10).Nodes)
	util.AssertTrue(t, store.Node(2).Deleted)
}

func TestCanOrthogonalize_keepsSpike(t *testing.T) {
	// Arrange
	// Node 5 is the tip of a narrow spike on top of the square, its edges point in nearly the same direction.
	store := closedWayStore(t, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0.51, 1}, {0.5, 3}, {0.49, 1}, {0, 1.02}})

	// Act
	action, err := CanOrthogonalize(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 2, 3, 4, 5, 6, 7, 1}, store.Way(10).Nodes)
	util.AssertFalse(t, store.Node(5).Deleted)
}

func TestCanOrthogonalize_straightNodeEndsOnSquaredEdge(t *testing.T) {
	// Arrange
	// Node 2 is tagged and stays, node 3 lies on the bottom edge and is removed.
	store := closedWayStore(t, [][2]float64{{0, 0}, {0.5, 0.01}, {0.75, 0.015}, {1, 0.02}, {1.01, 1}, {0, 0.98}})
	store.SetTags(store.Node(2), osm.Tags{"barrier": "gate"})
	store.AdvanceRunLoop()
	way := store.Way(10)
	proj := newProjection(uniqueRing(store, way))

	// Act
	action, err := CanOrthogonalize(store, way)
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 2, 4, 5, 6, 1}, way.Nodes)
	util.AssertTrue(t, store.Node(3).Deleted)
	squared := proj.toPlaneAll(uniqueRing(store, way))
	util.AssertTrue(t, isStraight(normalizedDotProduct(squared[0], squared[1], squared[2])))
}

func TestCanOrthogonalize_triangle(t *testing.T) {
	// Arrange
	store := closedWayStore(t, [][2]float64{{0, 0}, {1, 0.05}, {0.02, 1}})
	way := store.Way(10)
	proj := newProjection(uniqueRing(store, way))

	// Act
	action, err := CanOrthogonalize(store, way)
	commitAndCheck(t, store, action, err)

	// Assert
	score, ok := triangleSquareness(proj.toPlaneAll(uniqueRing(store, way)))
	util.AssertTrue(t, ok)
	util.AssertTrue(t, score < orthogonalizeEpsilon)
}

func TestCanOrthogonalize_refusals(t *testing.T) {
	// Arrange
	notSquare := closedWayStore(t, [][2]float64{{0, 0}, {1, 0}, {1.5, 1}, {0, 1}})
	square := closedWayStore(t, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	open := lineGraph(t)

	// Act & Assert
	action, err := CanOrthogonalize(notSquare, notSquare.Way(10))
	assertRefused(t, KindNotSquare, action, err)

	action, err = CanOrthogonalize(square, square.Way(10))
	assertRefused(t, KindNoChange, action, err)

	action, err = CanOrthogonalize(open, open.Way(10))
	assertRefused(t, KindInvalid, action, err)
}

func TestCanCircularize_square(t *testing.T) {
	// Arrange
	store := closedWayStore(t, [][2]float64{{0, 0}, {0.001, 0}, {0.001, 0.001}, {0, 0.001}})
	way := store.Way(10)
	proj := newProjection(uniqueRing(store, way))
	center := centroid(proj.toPlaneAll(uniqueRing(store, way)))

	// Act
	action, err := CanCircularize(store, way)
	commitAndCheck(t, store, action, err)

	// Assert
	// Every 90° gap gets four additional nodes.
	util.AssertLen(t, 21, way.Nodes)
	util.AssertTrue(t, way.IsClosed())

	points := proj.toPlaneAll(uniqueRing(store, way))
	radius := points[0].Sub(center).Norm()
	for i, point := range points {
		util.AssertApprox(t, radius, point.Sub(center).Norm(), 1e-12)
		previous := points[(i+len(points)-1)%len(points)]
		gap := math.Abs(angleOf(point.Sub(center)).Radians() - angleOf(previous.Sub(center)).Radians())
		if gap > math.Pi {
			gap = 2*math.Pi - gap
		}
		util.AssertApprox(t, 2*math.Pi/20, gap, 1e-9)
	}
	util.AssertEqual(t, osm.ID(1), way.Nodes[0])
	util.AssertEqual(t, osm.ID(2), way.Nodes[5])
	util.AssertEqual(t, osm.ID(3), way.Nodes[10])
	util.AssertEqual(t, osm.ID(4), way.Nodes[15])
}

func TestCanCircularize_tooManyNodes(t *testing.T) {
	// Arrange
	policy := graph.DefaultPolicy()
	policy.MaxWayNodes = 10
	store := newTestStoreWithPolicy(policy)
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 0.001),
			serverNode(3, 0.001, 0.001),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3, 1),
		},
	})

	// Act
	action, err := CanCircularize(store, store.Way(10))

	// Assert
	assertRefused(t, KindTooManyNodes, action, err)
}

func TestCanStraighten_removesAndMovesNodes(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	store.SetLatLon(store.Node(2), 0.1, 1)
	store.SetLatLon(store.Node(4), -0.1, 3)
	store.SetTags(store.Node(4), osm.Tags{"barrier": "gate"})
	store.AdvanceRunLoop()

	// Act
	action, err := CanStraighten(store, store.Way(10))
	commitAndCheck(t, store, action, err)

	// Assert
	util.AssertEqual(t, []osm.ID{1, 4, 5}, store.Way(10).Nodes)
	util.AssertTrue(t, store.Node(2).Deleted)
	util.AssertTrue(t, store.Node(3).Deleted)
	util.AssertApprox(t, 0, store.Node(4).Lat, 1e-12)
	util.AssertApprox(t, 3, store.Node(4).Lon, 1e-9)
}

func TestCanStraighten_notStraight(t *testing.T) {
	// Arrange
	store := lineGraph(t)
	store.SetLatLon(store.Node(3), 1, 2)
	store.AdvanceRunLoop()

	// Act
	action, err := CanStraighten(store, store.Way(10))

	// Assert
	editError := assertRefused(t, KindNotStraight, action, err)
	util.AssertEqual(t, "Way 10 is not sufficiently straight", editError.Reason)
}

func TestCanStraighten_alreadyStraight(t *testing.T) {
	// Arrange
	store := newTestStore()
	mustMerge(t, store, &graph.Batch{
		Nodes: []*osm.Node{
			serverNode(1, 0, 0),
			serverNode(2, 0, 1),
			serverNode(3, 0, 2),
		},
		Ways: []*osm.Way{
			serverWay(10, 1, 2, 3),
			serverWay(11, 2, 1),
		},
	})

	// Act
	action, err := CanStraighten(store, store.Way(10))

	// Assert
	assertRefused(t, KindNoChange, action, err)
}
