package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
)

const DefaultCapacity = 40

type objectEntry[T comparable] struct {
	object T
	bound  orb.Bound
}

type objectQuad[T comparable] struct {
	bound    orb.Bound
	depth    int
	isSplit  bool
	members  []objectEntry[T]
	children [4]*objectQuad[T]
}

func (q *objectQuad[T]) child(quadrant int) *objectQuad[T] {
	if q.children[quadrant] == nil {
		q.children[quadrant] = &objectQuad[T]{
			bound: childBound(q.bound, quadrant),
			depth: q.depth + 1,
		}
	}
	return q.children[quadrant]
}

func (q *objectQuad[T]) removeEntry(object T) bool {
	for i, entry := range q.members {
		if entry.object == object {
			last := len(q.members) - 1
			q.members[i] = q.members[last]
			q.members[last] = objectEntry[T]{}
			q.members = q.members[:last]
			return true
		}
	}
	return false
}

// ObjectIndex is a quad tree over object bounding boxes. A quad holds up to "capacity" members and is split into
// four children on overflow. Members are stored in the smallest quad fully containing their bounding box.
type ObjectIndex[T comparable] struct {
	root     *objectQuad[T]
	capacity int
	count    int
}

func NewObjectIndex[T comparable](capacity int) *ObjectIndex[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ObjectIndex[T]{
		root:     &objectQuad[T]{bound: World},
		capacity: capacity,
	}
}

func (i *ObjectIndex[T]) Count() int {
	return i.count
}

func (i *ObjectIndex[T]) AddMember(object T, bound orb.Bound) {
	i.insert(i.root, objectEntry[T]{object: object, bound: bound})
	i.count++
}

func (i *ObjectIndex[T]) insert(q *objectQuad[T], entry objectEntry[T]) {
	for {
		if !q.isSplit {
			if len(q.members) < i.capacity || q.depth >= MaxDepth {
				q.members = append(q.members, entry)
				return
			}
			i.split(q)
		}

		quadrant := quadrantContaining(q.bound, entry.bound)
		if quadrant == -1 {
			q.members = append(q.members, entry)
			return
		}
		q = q.child(quadrant)
	}
}

// split turns the quad into a router and pushes all members down that fit into a child.
func (i *ObjectIndex[T]) split(q *objectQuad[T]) {
	q.isSplit = true
	members := q.members
	q.members = nil
	for _, entry := range members {
		i.insert(q, entry)
	}
}

// RemoveMember removes the object stored with the given bounding box. When the object isn't found along the path
// given by the bounding box, the whole tree is searched.
func (i *ObjectIndex[T]) RemoveMember(object T, bound orb.Bound) bool {
	q := i.root
	for q != nil {
		if q.removeEntry(object) {
			i.count--
			return true
		}
		if !q.isSplit {
			break
		}
		quadrant := quadrantContaining(q.bound, bound)
		if quadrant == -1 {
			break
		}
		q = q.children[quadrant]
	}

	sigolo.Debugf("Object index: %v not found at its bounding box %v, searching whole index", object, bound)
	stack := []*objectQuad[T]{i.root}
	for len(stack) > 0 {
		q = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if q.removeEntry(object) {
			i.count--
			return true
		}
		for _, child := range q.children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return false
}

// UpdateMember moves the object to its new bounding box. Nothing happens when both boxes are equal.
func (i *ObjectIndex[T]) UpdateMember(object T, oldBound orb.Bound, newBound orb.Bound) {
	if oldBound == newBound {
		return
	}
	if i.RemoveMember(object, oldBound) {
		i.AddMember(object, newBound)
	}
}

// FindObjects calls the visitor for every object whose bounding box intersects the area. Areas crossing the
// antimeridian are supported, every object is visited at most once.
func (i *ObjectIndex[T]) FindObjects(area orb.Bound, visitor func(object T, bound orb.Bound)) {
	parts := SplitAntimeridian(area)
	if len(parts) == 1 {
		i.findObjects(parts[0], visitor)
		return
	}

	seen := map[T]struct{}{}
	for _, part := range parts {
		i.findObjects(part, func(object T, bound orb.Bound) {
			if _, ok := seen[object]; ok {
				return
			}
			seen[object] = struct{}{}
			visitor(object, bound)
		})
	}
}

func (i *ObjectIndex[T]) findObjects(area orb.Bound, visitor func(object T, bound orb.Bound)) {
	stack := []*objectQuad[T]{i.root}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, entry := range q.members {
			if entry.bound.Intersects(area) {
				visitor(entry.object, entry.bound)
			}
		}
		for _, child := range q.children {
			if child != nil && child.bound.Intersects(area) {
				stack = append(stack, child)
			}
		}
	}
}

// All calls the visitor for every stored entry, including duplicates should there be any.
func (i *ObjectIndex[T]) All(visitor func(object T, bound orb.Bound)) {
	stack := []*objectQuad[T]{i.root}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, entry := range q.members {
			visitor(entry.object, entry.bound)
		}
		for _, child := range q.children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func (i *ObjectIndex[T]) Clear() {
	i.root = &objectQuad[T]{bound: World}
	i.count = 0
}
