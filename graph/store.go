package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"osmedit/index"
	"osmedit/osm"
	"osmedit/undo"
	"osmedit/util"
	"sort"
	"time"
)

// Store owns all objects, both quad trees and the undo manager. It's not safe for concurrent use, all calls must
// come from one goroutine.
type Store struct {
	session Session
	policy  Policy

	nodes     map[osm.ID]*osm.Node
	ways      map[osm.ID]*osm.Way
	relations map[osm.ID]*osm.Relation

	index    *index.ObjectIndex[osm.Object]
	coverage *index.CoverageIndex
	undo     *undo.Manager[osm.Object]

	lastPlaceholderID osm.ID
	generation        uint64
}

func New(session Session, policy Policy) *Store {
	return &Store{
		session:   session,
		policy:    policy,
		nodes:     map[osm.ID]*osm.Node{},
		ways:      map[osm.ID]*osm.Way{},
		relations: map[osm.ID]*osm.Relation{},
		index:     index.NewObjectIndex[osm.Object](policy.IndexCapacity),
		coverage:  index.NewCoverageIndex(),
		undo:      undo.NewManager[osm.Object](),
	}
}

func (s *Store) Session() Session {
	return s.session
}

func (s *Store) Policy() Policy {
	return s.policy
}

// Now is the current time according to the session clock.
func (s *Store) Now() time.Time {
	return s.session.now()
}

func (s *Store) Coverage() *index.CoverageIndex {
	return s.coverage
}

// Generation changes with every mutation of the store, including undo and redo.
func (s *Store) Generation() uint64 {
	return s.generation
}

func (s *Store) Node(id osm.ID) *osm.Node {
	return s.nodes[id]
}

func (s *Store) Way(id osm.ID) *osm.Way {
	return s.ways[id]
}

func (s *Store) Relation(id osm.ID) *osm.Relation {
	return s.relations[id]
}

// Object returns nil when no object with this ID is known.
func (s *Store) Object(id osm.ExtendedID) osm.Object {
	switch id.Type {
	case osm.OsmObjNode:
		if n, ok := s.nodes[id.ID]; ok {
			return n
		}
	case osm.OsmObjWay:
		if w, ok := s.ways[id.ID]; ok {
			return w
		}
	case osm.OsmObjRelation:
		if r, ok := s.relations[id.ID]; ok {
			return r
		}
	}
	return nil
}

// Nodes returns all nodes including deleted ones, sorted by ID.
func (s *Store) Nodes() []*osm.Node {
	return sortedValues(s.nodes)
}

func (s *Store) Ways() []*osm.Way {
	return sortedValues(s.ways)
}

func (s *Store) Relations() []*osm.Relation {
	return sortedValues(s.relations)
}

func (s *Store) Counts() (int, int, int) {
	return len(s.nodes), len(s.ways), len(s.relations)
}

func sortedValues[T osm.Object](m map[osm.ID]T) []T {
	result := make([]T, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GetID() < result[j].GetID()
	})
	return result
}

// NodesOfWay resolves the node IDs of the way. Unknown nodes are skipped.
func (s *Store) NodesOfWay(way *osm.Way) []*osm.Node {
	nodes := make([]*osm.Node, 0, len(way.Nodes))
	for _, id := range way.Nodes {
		if node, ok := s.nodes[id]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (s *Store) nextPlaceholderID() osm.ID {
	s.lastPlaceholderID--
	return s.lastPlaceholderID
}

func (s *Store) stamp(meta *osm.Meta) {
	meta.User = s.session.User
	meta.UID = s.session.UserID
	meta.Timestamp = s.session.now()
}

// CreateNode adds a new node with a placeholder ID. The creation is undoable.
func (s *Store) CreateNode(lat float64, lon float64) *osm.Node {
	node := osm.NewNode(s.nextPlaceholderID(), lat, lon)
	s.stamp(&node.Meta)
	node.Deleted = true
	s.nodes[node.ID] = node
	s.setDeleted(node, false, 1)
	return node
}

// CreateWay adds a new way without nodes. The creation is undoable.
func (s *Store) CreateWay() *osm.Way {
	way := osm.NewWay(s.nextPlaceholderID(), nil)
	s.stamp(&way.Meta)
	way.Deleted = true
	s.ways[way.ID] = way
	s.setDeleted(way, false, 1)
	return way
}

// CreateRelation adds a new relation without members. The creation is undoable.
func (s *Store) CreateRelation() *osm.Relation {
	relation := osm.NewRelation(s.nextPlaceholderID(), nil)
	s.stamp(&relation.Meta)
	relation.Deleted = true
	s.relations[relation.ID] = relation
	s.setDeleted(relation, false, 1)
	return relation
}

// BoundOf returns the bounding box of the object. Live objects are answered from the cache.
func (s *Store) BoundOf(obj osm.Object) orb.Bound {
	if bound, ok := obj.GetMeta().CachedBound(); ok {
		return bound
	}
	return s.computeBound(obj)
}

func (s *Store) computeBound(obj osm.Object) orb.Bound {
	bound, _ := s.computeBoundVisited(obj, map[osm.ID]bool{})
	return bound
}

// computeBoundVisited returns false when the object has no location at all, e.g. an empty way.
func (s *Store) computeBoundVisited(obj osm.Object, visitedRelations map[osm.ID]bool) (orb.Bound, bool) {
	switch o := obj.(type) {
	case *osm.Node:
		return o.Point().Bound(), true
	case *osm.Way:
		return s.wayBound(o)
	case *osm.Relation:
		visitedRelations[o.ID] = true

		var bound orb.Bound
		found := false
		for _, member := range o.Members {
			memberObject := s.Object(member.ExtendedID())
			if memberObject == nil {
				continue
			}
			if member.Type == osm.OsmObjRelation && visitedRelations[member.Ref] {
				continue
			}

			memberBound, ok := s.computeBoundVisited(memberObject, visitedRelations)
			if !ok {
				continue
			}
			if !found {
				bound = memberBound
				found = true
			} else {
				bound = bound.Union(memberBound)
			}
		}
		return bound, found
	}
	return orb.Bound{}, false
}

func (s *Store) wayBound(way *osm.Way) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, id := range way.Nodes {
		node, ok := s.nodes[id]
		if !ok {
			continue
		}
		if !found {
			bound = node.Point().Bound()
			found = true
		} else {
			bound = bound.Extend(node.Point())
		}
	}
	return bound, found
}

// refreshBounds recomputes the bounding boxes of the given objects and all their (transitive) parent relations and
// moves them within the object index.
func (s *Store) refreshBounds(objects ...osm.Object) {
	visited := map[osm.ExtendedID]bool{}
	for _, obj := range objects {
		s.refreshBoundVisited(obj, visited)
	}
}

func (s *Store) refreshBoundVisited(obj osm.Object, visited map[osm.ExtendedID]bool) {
	id := obj.GetExtendedID()
	if visited[id] {
		return
	}
	visited[id] = true

	meta := obj.GetMeta()
	oldBound, wasValid := meta.CachedBound()
	newBound := s.computeBound(obj)
	meta.SetCachedBound(newBound)

	if !meta.Deleted {
		if wasValid {
			s.index.UpdateMember(obj, oldBound, newBound)
		} else {
			s.reportBug("Live object %s has no cached bounding box", id)
			s.index.AddMember(obj, newBound)
		}
	}

	if wasValid && oldBound == newBound {
		return
	}

	for _, relationID := range meta.ParentRelationIDs() {
		if relation, ok := s.relations[relationID]; ok {
			s.refreshBoundVisited(relation, visited)
		}
	}
}

func (s *Store) indexAdd(obj osm.Object) {
	bound := s.computeBound(obj)
	obj.GetMeta().SetCachedBound(bound)
	s.index.AddMember(obj, bound)
}

func (s *Store) indexRemove(obj osm.Object) {
	bound, ok := obj.GetMeta().CachedBound()
	if !ok {
		bound = s.computeBound(obj)
	}
	if !s.index.RemoveMember(obj, bound) {
		sigolo.Errorf("Object %s to remove was not in the object index", obj.GetExtendedID())
	}
}

func (s *Store) isReplaying() bool {
	return s.undo.IsUndoing() || s.undo.IsRedoing()
}

func (s *Store) registerUndo(name string, perform func(), targets ...osm.Object) {
	s.undo.RegisterUndo(name, targets, perform)
}

func (s *Store) BeginUndoGrouping() {
	s.undo.BeginUndoGrouping()
}

func (s *Store) EndUndoGrouping() {
	s.undo.EndUndoGrouping()
}

func (s *Store) AdvanceRunLoop() {
	s.undo.AdvanceRunLoop()
}

func (s *Store) RegisterUndoComment(comment map[string]any) {
	s.undo.RegisterComment(comment)
}

func (s *Store) CanUndo() bool {
	return s.undo.CanUndo()
}

func (s *Store) CanRedo() bool {
	return s.undo.CanRedo()
}

func (s *Store) RemoveMostRecentRedo() {
	s.undo.RemoveMostRecentRedo()
}

// Undo reverts the most recent undo group and returns the comment registered within it.
func (s *Store) Undo() (map[string]any, error) {
	comment, err := s.undo.Undo()
	if err != nil {
		return nil, err
	}
	s.debugCheck("undo")
	return comment, nil
}

func (s *Store) Redo() (map[string]any, error) {
	comment, err := s.undo.Redo()
	if err != nil {
		return nil, err
	}
	s.debugCheck("redo")
	return comment, nil
}

// DebugCheck runs the consistency check when the policy enables debug mode.
func (s *Store) DebugCheck(operation string) {
	s.debugCheck(operation)
}

// reportBug stops the program in debug mode. Otherwise the problem is logged and the caller carries on.
func (s *Store) reportBug(format string, args ...interface{}) {
	if s.policy.Debug {
		util.LogFatalBug(format, args...)
		return
	}
	sigolo.Errorf(format, args...)
}

func (s *Store) debugCheck(operation string) {
	if !s.policy.Debug {
		return
	}
	if err := s.CheckConsistency(); err != nil {
		util.LogFatalBug("Inconsistent graph after %s: %s", operation, err.Error())
	}
}
