package edit

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"osmedit/graph"
	"osmedit/osm"
)

var (
	ErrActionUsed  = errors.New("Action has already been committed")
	ErrActionStale = errors.New("Graph has changed since the action was planned")
)

type ErrorKind int

const (
	KindInvalid ErrorKind = iota
	KindNoChange
	KindReferenced
	KindRelation
	KindRestriction
	KindTagConflict
	KindTooManyNodes
	KindNotStraight
	KindNotSquare
	KindAmbiguous
)

// EditError is returned by the planners when an edit is not possible. The reason is meant to be shown to the user.
type EditError struct {
	Kind   ErrorKind
	Reason string
}

func (e *EditError) Error() string {
	return e.Reason
}

func refuse(kind ErrorKind, format string, args ...interface{}) *EditError {
	reason := fmt.Sprintf(format, args...)
	sigolo.Debugf("Edit refused: %s", reason)
	return &EditError{Kind: kind, Reason: reason}
}

// Action is a planned edit. It can be committed exactly once and only as long as the store hasn't changed since
// planning.
type Action struct {
	name       string
	store      *graph.Store
	generation uint64
	objects    []osm.Object
	perform    func() osm.Object
	used       bool
}

func newAction(store *graph.Store, name string, perform func() osm.Object, objects ...osm.Object) *Action {
	return &Action{
		name:       name,
		store:      store,
		generation: store.Generation(),
		objects:    objects,
		perform:    perform,
	}
}

func (a *Action) Name() string {
	return a.name
}

// Commit performs the edit as one undo step. The returned object is the most relevant result of the edit, e.g. the
// new way of a split or the surviving node of a merge. It may be nil.
func (a *Action) Commit() (osm.Object, error) {
	if a.used {
		return nil, ErrActionUsed
	}
	if a.store.Generation() != a.generation {
		return nil, ErrActionStale
	}
	a.used = true

	var ids []string
	for _, obj := range a.objects {
		ids = append(ids, obj.GetExtendedID().String())
	}

	a.store.BeginUndoGrouping()
	a.store.RegisterUndoComment(map[string]any{
		"action":  a.name,
		"objects": ids,
	})
	result := a.perform()
	a.store.EndUndoGrouping()

	a.store.DebugCheck(a.name)
	a.store.AdvanceRunLoop()

	sigolo.Debugf("Committed action '%s' on %v", a.name, ids)
	return result, nil
}

// deleteIfOrphaned deletes the node when it's no longer part of any way and carries no information of its own.
func deleteIfOrphaned(store *graph.Store, node *osm.Node) {
	if node.Deleted || node.WayCount() > 0 || !store.IsUninteresting(node) {
		return
	}
	store.DeleteNode(node)
}

// removeNodeFromWay removes all occurrences of the node and keeps closed ways closed.
func removeNodeFromWay(store *graph.Store, way *osm.Way, node *osm.Node) {
	if way.IsClosed() && way.FirstNode() == node.ID {
		store.RemoveNodeFromWay(way, len(way.Nodes)-1)
		store.RemoveNodeFromWay(way, 0)
		if len(way.Nodes) > 0 {
			store.AddNodeToWay(way, store.Node(way.FirstNode()), len(way.Nodes))
		}
	}
	for position := way.IndexOf(node.ID); position != -1; position = way.IndexOf(node.ID) {
		store.RemoveNodeFromWay(way, position)
	}
}

// uniqueRing returns the nodes of a closed way without the repeated closing node.
func uniqueRing(store *graph.Store, way *osm.Way) []*osm.Node {
	nodes := store.NodesOfWay(way)
	if way.IsClosed() {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

// isDisposable is true for nodes which only exist to shape the given single way.
func isDisposable(store *graph.Store, node *osm.Node) bool {
	return node.WayCount() == 1 && store.IsUninteresting(node)
}
