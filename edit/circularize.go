package edit

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"math"
	"osmedit/graph"
	"osmedit/osm"
)

// Gaps between nodes larger than this get additional nodes.
const circularizeMaxAngle = 20 * s1.Degree

// CanCircularize plans turning a closed way into a circle. All nodes are moved onto the circle with the mean
// distance to the centroid and large gaps are filled with new nodes.
func CanCircularize(store *graph.Store, way *osm.Way) (*Action, error) {
	if !way.IsClosed() {
		return nil, refuse(KindInvalid, "Way %d is not closed", way.ID)
	}
	nodes := uniqueRing(store, way)
	if len(nodes) < 3 {
		return nil, refuse(KindInvalid, "Way %d has too few nodes", way.ID)
	}

	proj := newProjection(nodes)
	points := proj.toPlaneAll(nodes)
	center := centroid(points)

	radius := 0.0
	for _, point := range points {
		radius += point.Sub(center).Norm()
	}
	radius /= float64(len(points))
	if radius == 0 {
		return nil, refuse(KindInvalid, "Way %d has no extent", way.ID)
	}

	counterClockwise := signedArea(points) > 0

	projected := make([]r2.Point, len(points))
	maxOffset := 0.0
	for i, point := range points {
		offset := point.Sub(center)
		projected[i] = center.Add(offset.Normalize().Mul(radius))
		maxOffset = math.Max(maxOffset, math.Abs(offset.Norm()-radius))
	}

	// Synthetic nodes per gap. The gap after node i ends at node i+1, the last one at the first node.
	inserts := make([][]r2.Point, len(points))
	insertCount := 0
	for i := range points {
		from := angleOf(projected[i].Sub(center))
		to := angleOf(projected[(i+1)%len(points)].Sub(center))

		var gap s1.Angle
		if counterClockwise {
			gap = positiveAngle(to - from)
		} else {
			gap = -positiveAngle(from - to)
		}

		count := int(math.Ceil(math.Abs(gap.Radians())/circularizeMaxAngle.Radians())) - 1
		for j := 1; j <= count; j++ {
			angle := from + gap*s1.Angle(j)/s1.Angle(count+1)
			inserts[i] = append(inserts[i], center.Add(r2.Point{X: math.Cos(angle.Radians()), Y: math.Sin(angle.Radians())}.Mul(radius)))
		}
		insertCount += count
	}

	if insertCount == 0 && maxOffset < radius*1e-6 {
		return nil, refuse(KindNoChange, "Way %d is already a circle", way.ID)
	}
	if len(way.Nodes)+insertCount > store.Policy().MaxWayNodes {
		return nil, refuse(KindTooManyNodes, "Circularized way %d would have more than %d nodes", way.ID, store.Policy().MaxWayNodes)
	}

	return newAction(store, "circularize", func() osm.Object {
		for i, node := range nodes {
			lat, lon := proj.toLatLon(projected[i])
			if lat != node.Lat || lon != node.Lon {
				store.SetLatLon(node, lat, lon)
			}
		}

		// Inserting from the back keeps the positions of the earlier gaps valid.
		for i := len(nodes) - 1; i >= 0; i-- {
			for j := len(inserts[i]) - 1; j >= 0; j-- {
				lat, lon := proj.toLatLon(inserts[i][j])
				store.AddNodeToWay(way, store.CreateNode(lat, lon), i+1)
			}
		}
		return way
	}, way), nil
}

func angleOf(vector r2.Point) s1.Angle {
	return s1.Angle(math.Atan2(vector.Y, vector.X))
}

// positiveAngle normalizes the angle into (0, 2π].
func positiveAngle(angle s1.Angle) s1.Angle {
	angle = s1.Angle(math.Mod(angle.Radians(), 2*math.Pi))
	if angle <= 0 {
		angle += 2 * math.Pi
	}
	return angle
}
