package edit

import (
	"github.com/golang/geo/r2"
	"math"
	"osmedit/osm"
)

// projection maps lat/lon onto a local plane in which angles are preserved around the given nodes. It's an
// equirectangular projection centered on the mean latitude.
type projection struct {
	scale float64
}

func newProjection(nodes []*osm.Node) projection {
	if len(nodes) == 0 {
		return projection{scale: 1}
	}
	latSum := 0.0
	for _, node := range nodes {
		latSum += node.Lat
	}
	scale := math.Cos(latSum / float64(len(nodes)) * math.Pi / 180)
	if scale < 1e-6 {
		scale = 1e-6
	}
	return projection{scale: scale}
}

func (p projection) toPlane(node *osm.Node) r2.Point {
	return r2.Point{X: node.Lon * p.scale, Y: node.Lat}
}

func (p projection) toPlaneAll(nodes []*osm.Node) []r2.Point {
	points := make([]r2.Point, len(nodes))
	for i, node := range nodes {
		points[i] = p.toPlane(node)
	}
	return points
}

// toLatLon is the inverse of toPlane.
func (p projection) toLatLon(point r2.Point) (float64, float64) {
	return point.Y, point.X / p.scale
}

// normalizedDotProduct of the edges from b to a and from b to c. It's 0 for right angles and -1 for straight
// corners.
func normalizedDotProduct(a r2.Point, b r2.Point, c r2.Point) float64 {
	p := a.Sub(b)
	q := c.Sub(b)
	if p.Norm() == 0 || q.Norm() == 0 {
		return -1
	}
	return p.Normalize().Dot(q.Normalize())
}

// signedArea is positive for counter-clockwise rings.
func signedArea(points []r2.Point) float64 {
	area := 0.0
	for i := range points {
		area += points[i].Cross(points[(i+1)%len(points)])
	}
	return area / 2
}

func centroid(points []r2.Point) r2.Point {
	area := signedArea(points)
	if math.Abs(area) < 1e-12 {
		sum := r2.Point{}
		for _, point := range points {
			sum = sum.Add(point)
		}
		return sum.Mul(1 / float64(len(points)))
	}

	sum := r2.Point{}
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		sum = sum.Add(a.Add(b).Mul(a.Cross(b)))
	}
	return sum.Mul(1 / (6 * area))
}

// distanceToLine returns the distance of the point to the infinite line through a and b and the projection of the
// point onto that line.
func distanceToLine(point r2.Point, a r2.Point, b r2.Point) (float64, r2.Point) {
	direction := b.Sub(a)
	length := direction.Norm()
	if length == 0 {
		return point.Sub(a).Norm(), a
	}
	direction = direction.Mul(1 / length)
	projected := a.Add(direction.Mul(point.Sub(a).Dot(direction)))
	return point.Sub(projected).Norm(), projected
}
