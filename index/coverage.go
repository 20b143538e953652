package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"sort"
	"time"
)

// CoverageQuad is one node of the coverage tree. Downloaded quads never have children.
type CoverageQuad struct {
	Bound        orb.Bound
	Downloaded   bool
	Busy         bool
	DownloadDate time.Time

	parent   *CoverageQuad
	quadrant int
	depth    int
	children [4]*CoverageQuad
}

// Path returns the quadrants leading from the root to this quad.
func (q *CoverageQuad) Path() []byte {
	path := make([]byte, q.depth)
	for current := q; current.parent != nil; current = current.parent {
		path[current.depth-1] = byte(current.quadrant)
	}
	return path
}

func (q *CoverageQuad) hasChildren() bool {
	for _, child := range q.children {
		if child != nil {
			return true
		}
	}
	return false
}

func (q *CoverageQuad) child(quadrant int) *CoverageQuad {
	if q.children[quadrant] == nil {
		q.children[quadrant] = &CoverageQuad{
			Bound:    childBound(q.Bound, quadrant),
			parent:   q,
			quadrant: quadrant,
			depth:    q.depth + 1,
		}
	}
	return q.children[quadrant]
}

// CoverageIndex keeps track of the areas of the world that have been downloaded.
type CoverageIndex struct {
	root *CoverageQuad
}

func NewCoverageIndex() *CoverageIndex {
	return &CoverageIndex{
		root: &CoverageQuad{Bound: World},
	}
}

// MissingPieces returns the quads that must be fetched to cover the region and marks them as busy. Quads that are
// downloaded or already busy are not returned.
func (c *CoverageIndex) MissingPieces(region orb.Bound) []*CoverageQuad {
	pieces := c.PeekMissingPieces(region)
	for _, piece := range pieces {
		piece.Busy = true
	}
	sigolo.Debugf("Coverage: %d missing pieces for region %v", len(pieces), region)
	return pieces
}

// PeekMissingPieces is like MissingPieces but leaves the busy flags untouched. Repeated calls return the same quads
// as long as the tree doesn't change in between.
func (c *CoverageIndex) PeekMissingPieces(region orb.Bound) []*CoverageQuad {
	var pieces []*CoverageQuad
	for _, part := range SplitAntimeridian(region) {
		collectMissingPieces(c.root, part, width(part), &pieces)
	}
	return pieces
}

func collectMissingPieces(q *CoverageQuad, target orb.Bound, targetWidth float64, pieces *[]*CoverageQuad) {
	if q.Downloaded || q.Busy {
		return
	}
	if !overlaps(q.Bound, target) && !(targetWidth == 0 && q.Bound.Intersects(target)) {
		return
	}

	// Quads much smaller than the requested area aren't worth splitting any further.
	quadWidth := width(q.Bound)
	if quadWidth <= MinRectSize || q.depth >= MaxDepth || quadWidth <= targetWidth/8 {
		if !q.hasChildren() {
			*pieces = append(*pieces, q)
			return
		}
	}

	if contains(target, q.Bound) && !q.hasChildren() {
		*pieces = append(*pieces, q)
		return
	}

	for quadrant := 0; quadrant < 4; quadrant++ {
		childBound := childBound(q.Bound, quadrant)
		if q.children[quadrant] == nil && !overlaps(childBound, target) && !(targetWidth == 0 && childBound.Intersects(target)) {
			continue
		}
		collectMissingPieces(q.child(quadrant), target, targetWidth, pieces)
	}
}

// UpdateDownloadStatus is called once the fetch of a quad returned by MissingPieces finished. On success the quad is
// marked as downloaded and parents whose four children are all downloaded are merged.
func (c *CoverageIndex) UpdateDownloadStatus(q *CoverageQuad, success bool, now time.Time) {
	q.Busy = false
	if !success {
		return
	}

	q.Downloaded = true
	q.DownloadDate = now
	q.children = [4]*CoverageQuad{}

	for parent := q.parent; parent != nil; parent = parent.parent {
		oldest := now
		for _, child := range parent.children {
			if child == nil || !child.Downloaded {
				return
			}
			if child.DownloadDate.Before(oldest) {
				oldest = child.DownloadDate
			}
		}

		sigolo.Tracef("Coverage: merge children of quad %v", parent.Bound)
		parent.Downloaded = true
		parent.DownloadDate = oldest
		parent.children = [4]*CoverageQuad{}
	}
}

// DownloadedQuads returns all downloaded quads. These are always leaves of the tree.
func (c *CoverageIndex) DownloadedQuads() []*CoverageQuad {
	var result []*CoverageQuad
	stack := []*CoverageQuad{c.root}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if q.Downloaded {
			result = append(result, q)
			continue
		}
		for _, child := range q.children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return result
}

// DiscardOldestQuads removes the oldest given fraction of downloaded quads and additionally every quad downloaded
// before the given date. Busy quads are never discarded. The bounds of all discarded quads are returned.
func (c *CoverageIndex) DiscardOldestQuads(fraction float64, oldest time.Time) []orb.Bound {
	quads := c.DownloadedQuads()
	sort.SliceStable(quads, func(i, j int) bool {
		return quads[i].DownloadDate.Before(quads[j].DownloadDate)
	})

	count := int(float64(len(quads)) * fraction)
	var discarded []orb.Bound
	for i, q := range quads {
		if q.Busy {
			continue
		}
		if i >= count && !q.DownloadDate.Before(oldest) {
			break
		}

		discarded = append(discarded, q.Bound)
		c.discard(q)
	}

	sigolo.Debugf("Coverage: discarded %d of %d downloaded quads", len(discarded), len(quads))
	return discarded
}

func (c *CoverageIndex) discard(q *CoverageQuad) {
	q.Downloaded = false
	q.DownloadDate = time.Time{}

	// Remove now empty branches so the tree doesn't keep growing.
	for q.parent != nil && !q.Downloaded && !q.Busy && !q.hasChildren() {
		parent := q.parent
		parent.children[q.quadrant] = nil
		q = parent
	}
}

// PointIsCovered returns true when the point lies within a downloaded quad.
func (c *CoverageIndex) PointIsCovered(p orb.Point) bool {
	if !World.Contains(p) {
		return false
	}

	q := c.root
	for q != nil {
		if q.Downloaded {
			return true
		}
		q = q.children[quadrantOfPoint(q.Bound, p)]
	}
	return false
}

func (c *CoverageIndex) AnyNodeIsCovered(points []orb.Point) bool {
	for _, p := range points {
		if c.PointIsCovered(p) {
			return true
		}
	}
	return false
}

// MarkDownloaded sets the quad at the given path as downloaded, creating all quads on the way. This is used when
// restoring a persisted coverage tree.
func (c *CoverageIndex) MarkDownloaded(path []byte, date time.Time) {
	q := c.root
	for _, quadrant := range path {
		if q.Downloaded {
			return
		}
		q = q.child(int(quadrant) & 3)
	}
	q.Downloaded = true
	q.DownloadDate = date
	q.children = [4]*CoverageQuad{}
}
