package index

import (
	"github.com/paulmach/orb"
)

// MaxDepth bounds the recursion of both quad trees. At depth 26 a quad of the world is
// about 0.6m wide at the equator.
const MaxDepth = 26

// World is the extent both quad trees partition.
var World = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// MinRectSize is the width in degrees of a quad at MaxDepth.
var MinRectSize = width(World) / (1 << MaxDepth)

// Quadrant positions of children: bit 0 is set for the eastern half, bit 1 for the northern half.
const (
	quadrantSW = 0
	quadrantSE = 1
	quadrantNW = 2
	quadrantNE = 3
)

func childBound(b orb.Bound, quadrant int) orb.Bound {
	center := b.Center()
	child := b
	if quadrant&1 == 0 {
		child.Max[0] = center.X()
	} else {
		child.Min[0] = center.X()
	}
	if quadrant&2 == 0 {
		child.Max[1] = center.Y()
	} else {
		child.Min[1] = center.Y()
	}
	return child
}

// quadrantContaining returns the child quadrant of b fully containing inner or -1 when inner straddles the center
// lines of b.
func quadrantContaining(b orb.Bound, inner orb.Bound) int {
	center := b.Center()

	quadrant := 0
	if inner.Min.X() >= center.X() {
		quadrant |= 1
	} else if inner.Max.X() > center.X() {
		return -1
	}
	if inner.Min.Y() >= center.Y() {
		quadrant |= 2
	} else if inner.Max.Y() > center.Y() {
		return -1
	}

	if !contains(b, inner) {
		return -1
	}
	return quadrant
}

func quadrantOfPoint(b orb.Bound, p orb.Point) int {
	center := b.Center()
	quadrant := 0
	if p.X() >= center.X() {
		quadrant |= 1
	}
	if p.Y() >= center.Y() {
		quadrant |= 2
	}
	return quadrant
}

// contains returns true when inner lies completely within outer, borders included.
func contains(outer orb.Bound, inner orb.Bound) bool {
	return inner.Min.X() >= outer.Min.X() && inner.Max.X() <= outer.Max.X() &&
		inner.Min.Y() >= outer.Min.Y() && inner.Max.Y() <= outer.Max.Y()
}

// overlaps is like orb.Bound.Intersects but false for rectangles only touching at their borders.
func overlaps(a orb.Bound, b orb.Bound) bool {
	return a.Min.X() < b.Max.X() && b.Min.X() < a.Max.X() &&
		a.Min.Y() < b.Max.Y() && b.Min.Y() < a.Max.Y()
}

func width(b orb.Bound) float64 {
	return b.Max.X() - b.Min.X()
}
