package edit

import (
	"github.com/golang/geo/r2"
	"github.com/hauke96/sigolo/v2"
	"math"
	"osmedit/graph"
	"osmedit/osm"
)

const (
	orthogonalizeEpsilon       = 1e-4
	orthogonalizeMaxIterations = 1000
	// Corners within this many degrees of 90° or 180° are snapped to exactly that.
	orthogonalizeThreshold = 13.0
)

var (
	orthoLowerThreshold = math.Cos((90 - orthogonalizeThreshold) * math.Pi / 180)
	orthoUpperThreshold = math.Cos(orthogonalizeThreshold * math.Pi / 180)
)

// CanOrthogonalize plans squaring the corners of a closed way. Uninteresting nodes which are still nearly straight
// on the squared ring are removed afterwards.
func CanOrthogonalize(store *graph.Store, way *osm.Way) (*Action, error) {
	if !way.IsClosed() {
		return nil, refuse(KindInvalid, "Way %d is not closed", way.ID)
	}
	nodes := uniqueRing(store, way)
	if len(nodes) < 3 {
		return nil, refuse(KindInvalid, "Way %d has too few nodes", way.ID)
	}

	proj := newProjection(nodes)
	original := proj.toPlaneAll(nodes)

	// Nodes on straight lines which nothing else depends on stay out of the squaring.
	straight := make([]bool, len(nodes))
	straightCount := 0
	var corners []*osm.Node
	for i, node := range nodes {
		dotp := normalizedDotProduct(original[(i+len(nodes)-1)%len(nodes)], original[i], original[(i+1)%len(nodes)])
		if isStraight(dotp) && isDisposable(store, node) && len(nodes)-straightCount > 3 {
			straight[i] = true
			straightCount++
		} else {
			corners = append(corners, node)
		}
	}
	points := proj.toPlaneAll(corners)

	var score float64
	var ok bool
	if len(points) == 3 {
		score, ok = triangleSquareness(points)
	} else {
		score, ok = squareness(points)
	}
	if !ok {
		return nil, refuse(KindNotSquare, "Way %d is not squarish enough", way.ID)
	}

	var best []r2.Point
	var iterations int
	if len(points) == 3 {
		best, iterations = orthogonalizeTriangle(points)
	} else {
		best, iterations = orthogonalizePolygon(points)
	}
	sigolo.Debugf("Orthogonalized way %d in %d iterations", way.ID, iterations)

	squared := make([]r2.Point, len(nodes))
	cornerIndex := 0
	for i := range nodes {
		if straight[i] {
			squared[i] = original[i]
		} else {
			squared[i] = best[cornerIndex]
			cornerIndex++
		}
	}
	removable, moved := settleStraightNodes(nodes, straight, squared)
	if score < orthogonalizeEpsilon && len(removable) == 0 && len(moved) == 0 {
		return nil, refuse(KindNoChange, "Way %d is already square", way.ID)
	}

	return newAction(store, "orthogonalize", func() osm.Object {
		for i, node := range corners {
			lat, lon := proj.toLatLon(best[i])
			if lat != node.Lat || lon != node.Lon {
				store.SetLatLon(node, lat, lon)
			}
		}
		for node, point := range moved {
			lat, lon := proj.toLatLon(point)
			if lat != node.Lat || lon != node.Lon {
				store.SetLatLon(node, lat, lon)
			}
		}
		for _, node := range removable {
			removeNodeFromWay(store, way, node)
			deleteIfOrphaned(store, node)
		}
		return way
	}, way), nil
}

// isStraight is true for corners close to 180°. Spikes close to 0° are real corners.
func isStraight(dotp float64) bool {
	return dotp < -orthoUpperThreshold
}

// settleStraightNodes decides on the squared ring which of the straight nodes can go. A straight node is measured
// against its closest squared corners. Nodes still on a straight line are removed, all others are moved onto the
// squared edge between these corners. At least three nodes always remain.
func settleStraightNodes(nodes []*osm.Node, straight []bool, squared []r2.Point) ([]*osm.Node, map[*osm.Node]r2.Point) {
	var removable []*osm.Node
	moved := map[*osm.Node]r2.Point{}
	n := len(nodes)

	for i, node := range nodes {
		if !straight[i] {
			continue
		}
		prev := (i + n - 1) % n
		for straight[prev] {
			prev = (prev + n - 1) % n
		}
		next := (i + 1) % n
		for straight[next] {
			next = (next + 1) % n
		}

		a, b := squared[prev], squared[next]
		if isStraight(normalizedDotProduct(a, squared[i], b)) && n-len(removable) > 3 {
			removable = append(removable, node)
			continue
		}

		edge := b.Sub(a)
		if edge.Norm() == 0 {
			continue
		}
		t := squared[i].Sub(a).Dot(edge) / edge.Dot(edge)
		moved[node] = a.Add(edge.Mul(t))
	}

	return removable, moved
}

// squareness sums up how far each corner is from 90° or 180°. It fails when a corner is far from both.
func squareness(points []r2.Point) (float64, bool) {
	score := 0.0
	for i := range points {
		dotp := normalizedDotProduct(points[(i+len(points)-1)%len(points)], points[i], points[(i+1)%len(points)])
		val := math.Abs(dotp)
		if val > orthoLowerThreshold && val < orthoUpperThreshold {
			return 0, false
		}
		score += 2 * math.Min(math.Abs(dotp-1), math.Min(math.Abs(dotp), math.Abs(dotp+1)))
	}
	return score, true
}

// triangleSquareness only looks at the corner closest to a right angle, the other two can't be square anyway.
func triangleSquareness(points []r2.Point) (float64, bool) {
	best := 1.0
	for i := range points {
		dotp := math.Abs(normalizedDotProduct(points[(i+2)%3], points[i], points[(i+1)%3]))
		best = math.Min(best, dotp)
	}
	if best >= orthoLowerThreshold {
		return 0, false
	}
	return best, true
}

// cornerMotion moves corner b along the bisector of its edges. Nearly straight corners stay where they are.
func cornerMotion(a r2.Point, b r2.Point, c r2.Point) (r2.Point, float64) {
	p := a.Sub(b)
	q := c.Sub(b)
	scale := 2 * math.Min(p.Norm(), q.Norm())
	p = p.Normalize()
	q = q.Normalize()

	dotp := p.Dot(q)
	if math.Abs(dotp) >= orthoLowerThreshold {
		return r2.Point{}, dotp
	}
	return p.Add(q).Normalize().Mul(0.1 * dotp * scale), dotp
}

func orthogonalizePolygon(points []r2.Point) ([]r2.Point, int) {
	current := append([]r2.Point{}, points...)
	best := append([]r2.Point{}, points...)
	bestScore, _ := squareness(points)

	n := len(current)
	iteration := 0
	for ; iteration < orthogonalizeMaxIterations && bestScore >= orthogonalizeEpsilon; iteration++ {
		motions := make([]r2.Point, n)
		for i := range current {
			motions[i], _ = cornerMotion(current[(i+n-1)%n], current[i], current[(i+1)%n])
		}
		for i := range current {
			current[i] = current[i].Add(motions[i])
		}

		score, ok := squareness(current)
		if ok && score < bestScore {
			bestScore = score
			copy(best, current)
		}
	}
	return best, iteration
}

// orthogonalizeTriangle only moves the corner which is closest to a right angle.
func orthogonalizeTriangle(points []r2.Point) ([]r2.Point, int) {
	current := append([]r2.Point{}, points...)

	iteration := 0
	for ; iteration < orthogonalizeMaxIterations; iteration++ {
		corner := -1
		cornerDotp := 1.0
		var motion r2.Point
		for i := range current {
			m, dotp := cornerMotion(current[(i+2)%3], current[i], current[(i+1)%3])
			if math.Abs(dotp) < orthoLowerThreshold && math.Abs(dotp) < cornerDotp {
				corner = i
				cornerDotp = math.Abs(dotp)
				motion = m
			}
		}
		if corner == -1 || cornerDotp < orthogonalizeEpsilon {
			break
		}
		current[corner] = current[corner].Add(motion)
	}
	return current, iteration
}
