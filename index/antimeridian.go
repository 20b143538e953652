package index

import (
	"github.com/paulmach/orb"
)

// SplitAntimeridian normalizes a rectangle into one or two rectangles within World. Rectangles reaching beyond ±180°
// longitude (as produced by a viewport panned across the antimeridian) or given with Min.X > Max.X are split into
// [Min.X, 180] and [-180, Max.X]. Latitudes are clamped to ±90°.
func SplitAntimeridian(b orb.Bound) []orb.Bound {
	minY := max(b.Min.Y(), World.Min.Y())
	maxY := min(b.Max.Y(), World.Max.Y())

	minX := b.Min.X()
	maxX := b.Max.X()

	if minX <= maxX && maxX-minX >= width(World) {
		return []orb.Bound{bound(World.Min.X(), minY, World.Max.X(), maxY)}
	}

	for minX < World.Min.X() {
		minX += 360
	}
	for minX > World.Max.X() {
		minX -= 360
	}
	for maxX < World.Min.X() {
		maxX += 360
	}
	for maxX > World.Max.X() {
		maxX -= 360
	}

	if minX <= maxX {
		return []orb.Bound{bound(minX, minY, maxX, maxY)}
	}

	return []orb.Bound{
		bound(minX, minY, World.Max.X(), maxY),
		bound(World.Min.X(), minY, maxX, maxY),
	}
}

func bound(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}
