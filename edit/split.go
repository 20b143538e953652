package edit

import (
	"github.com/paulmach/orb/geo"
	"math"
	"osmedit/graph"
	"osmedit/osm"
	"sort"
)

type memberChangeKind int

const (
	memberRepoint memberChangeKind = iota
	memberInsertBefore
	memberInsertAfter
)

// memberChange describes how a relation referencing a split way gets the new half.
type memberChange struct {
	relation *osm.Relation
	position int
	kind     memberChangeKind
	role     string
}

// CanSplitWay plans splitting the way at the node. For open ways everything after the node is moved into a new way.
// Closed ways are split at the node and at the node of the opposite side where the ring is narrowest.
func CanSplitWay(store *graph.Store, way *osm.Way, node *osm.Node) (*Action, error) {
	if way.Deleted {
		return nil, refuse(KindInvalid, "Way %d is deleted", way.ID)
	}
	if !way.ContainsNode(node.ID) {
		return nil, refuse(KindInvalid, "Node %d is not part of way %d", node.ID, way.ID)
	}

	var first, second []osm.ID
	if way.IsClosed() {
		ring := way.Nodes[:len(way.Nodes)-1]
		if len(ring) < 3 {
			return nil, refuse(KindInvalid, "Way %d has too few nodes", way.ID)
		}
		start := way.IndexOf(node.ID)
		end := oppositeNode(store, ring, start)
		first = cyclicSlice(ring, start, end)
		second = cyclicSlice(ring, end, start)
	} else {
		position := -1
		for i := 1; i < len(way.Nodes)-1; i++ {
			if way.Nodes[i] == node.ID {
				position = i
				break
			}
		}
		if position == -1 {
			return nil, refuse(KindInvalid, "Way %d can't be split at its endpoint", way.ID)
		}
		first = append([]osm.ID{}, way.Nodes[:position+1]...)
		second = append([]osm.ID{}, way.Nodes[position:]...)
	}

	changes := planMemberChanges(store, way, first, second)

	return newAction(store, "split way", func() osm.Object {
		newWay := store.CreateWay()
		if len(way.Tags) > 0 {
			store.SetTags(newWay, way.Tags)
		}
		for _, id := range second {
			store.AddNodeToWay(newWay, store.Node(id), len(newWay.Nodes))
		}
		store.ReplaceWayNodes(way, resolveNodes(store, first))

		for _, change := range changes {
			member := osm.Member{Type: osm.OsmObjWay, Ref: newWay.ID, Role: change.role}
			switch change.kind {
			case memberRepoint:
				store.SetMember(change.relation, change.position, member)
			case memberInsertBefore:
				store.AddMemberToRelation(change.relation, member, change.position)
			case memberInsertAfter:
				store.AddMemberToRelation(change.relation, member, change.position+1)
			}
		}
		return newWay
	}, way, node), nil
}

// oppositeNode returns the ring index maximizing the ratio between the distance along the ring and the direct
// distance to the start node.
func oppositeNode(store *graph.Store, ring []osm.ID, start int) int {
	n := len(ring)
	points := make([]*osm.Node, n)
	for i, id := range ring {
		points[i] = store.Node(id)
	}

	edges := make([]float64, n)
	perimeter := 0.0
	for i := range ring {
		edges[i] = geo.Distance(points[i].Point(), points[(i+1)%n].Point())
		perimeter += edges[i]
	}

	best := (start + n/2) % n
	bestRatio := -1.0
	along := 0.0
	for step := 1; step < n; step++ {
		along += edges[(start+step-1)%n]
		candidate := (start + step) % n
		if ring[candidate] == ring[start] {
			continue
		}

		shortest := math.Min(along, perimeter-along)
		direct := geo.Distance(points[start].Point(), points[candidate].Point())
		ratio := math.Inf(1)
		if direct > 0 {
			ratio = shortest / direct
		}
		if ratio > bestRatio {
			bestRatio = ratio
			best = candidate
		}
	}
	return best
}

// cyclicSlice returns the ring nodes from start to end (both included) walking forward.
func cyclicSlice(ring []osm.ID, start int, end int) []osm.ID {
	result := []osm.ID{ring[start]}
	for i := start; i != end; {
		i = (i + 1) % len(ring)
		result = append(result, ring[i])
	}
	return result
}

func resolveNodes(store *graph.Store, ids []osm.ID) []*osm.Node {
	nodes := make([]*osm.Node, len(ids))
	for i, id := range ids {
		nodes[i] = store.Node(id)
	}
	return nodes
}

// planMemberChanges decides for every membership of the way where the new half goes. Turn restrictions reference
// the half touching their junction, all other relations get the new half next to the old one. The changes are
// ordered back to front so that earlier positions stay valid.
func planMemberChanges(store *graph.Store, way *osm.Way, first []osm.ID, second []osm.ID) []memberChange {
	var changes []memberChange
	firstFirst := first[0]
	firstLast := first[len(first)-1]
	secondFirst := second[0]
	secondLast := second[len(second)-1]

	for _, relation := range store.ParentRelations(way) {
		var keyNodes map[osm.ID]bool
		if relation.IsRestriction() {
			keyNodes = store.KeyNodes(store.RestrictionParts(relation))
		}

		for _, position := range relation.MemberIndexes(way.GetExtendedID()) {
			member := relation.Members[position]
			change := memberChange{relation: relation, position: position, role: member.Role}

			switch {
			case relation.IsRestriction() && (member.Role == graph.RoleFrom || member.Role == graph.RoleTo):
				// When both halves touch the junction there's no better choice than keeping the original.
				if !halfHasKeyNode(second, keyNodes) || halfHasKeyNode(first, keyNodes) {
					continue
				}
				change.kind = memberRepoint
			case position > 0 && connectsTo(store, relation.Members[position-1], secondFirst, secondLast):
				change.kind = memberInsertBefore
			case position > 0 && connectsTo(store, relation.Members[position-1], firstFirst, firstLast):
				change.kind = memberInsertAfter
			case position+1 < len(relation.Members) && connectsTo(store, relation.Members[position+1], firstFirst, firstLast):
				change.kind = memberInsertBefore
			default:
				change.kind = memberInsertAfter
			}
			changes = append(changes, change)
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].relation.ID != changes[j].relation.ID {
			return changes[i].relation.ID < changes[j].relation.ID
		}
		return changes[i].position > changes[j].position
	})
	return changes
}

func halfHasKeyNode(half []osm.ID, keyNodes map[osm.ID]bool) bool {
	for _, id := range half {
		if keyNodes[id] {
			return true
		}
	}
	return false
}

// connectsTo is true when the member is a way sharing an endpoint with the given endpoints.
func connectsTo(store *graph.Store, member osm.Member, first osm.ID, last osm.ID) bool {
	if member.Type != osm.OsmObjWay {
		return false
	}
	other := store.Way(member.Ref)
	if other == nil || len(other.Nodes) == 0 {
		return false
	}
	return other.IsEndpoint(first) || other.IsEndpoint(last)
}
