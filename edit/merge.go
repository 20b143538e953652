package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"strings"
)

// CanMerge plans merging the node into the other one. The merged node is located where "into" is. Which of both
// objects survives is decided by their history: nodes known to the server are kept over new ones, then nodes used
// by more ways. Conflicting tags are refused unless forced, forced merges keep the values of the survivor.
func CanMerge(store *graph.Store, node *osm.Node, into *osm.Node, force bool) (*Action, error) {
	if node == into {
		return nil, refuse(KindInvalid, "Node %d can't be merged with itself", node.ID)
	}
	if node.Deleted || into.Deleted {
		return nil, refuse(KindInvalid, "Deleted nodes can't be merged")
	}

	survivor, loser := into, node
	switch {
	case survivor.ID.IsPlaceholder() && !loser.ID.IsPlaceholder():
		survivor, loser = loser, survivor
	case survivor.ID.IsPlaceholder() == loser.ID.IsPlaceholder() && loser.WayCount() > survivor.WayCount():
		survivor, loser = loser, survivor
	}

	tags, conflicts := survivor.Tags.Merge(loser.Tags)
	if len(conflicts) > 0 && !force {
		return nil, refuse(KindTagConflict, "The tags %s of the nodes conflict", strings.Join(conflicts, ", "))
	}

	if err := checkRestrictionsForMerge(store, node, into); err != nil {
		return nil, err
	}

	ways := store.WaysContaining(loser)
	for _, way := range ways {
		remaining := distinctNodeCount(way, loser.ID)
		if way.ContainsNode(survivor.ID) && (remaining < 2 || way.IsClosed() && remaining < 3) {
			return nil, refuse(KindInvalid, "Merging would collapse way %d", way.ID)
		}
	}

	lat, lon := into.Lat, into.Lon

	return newAction(store, "merge nodes", func() osm.Object {
		if survivor.Lat != lat || survivor.Lon != lon {
			store.SetLatLon(survivor, lat, lon)
		}
		if !tags.Equal(survivor.Tags) {
			store.SetTags(survivor, tags)
		}
		for _, way := range ways {
			replaceNodeInWay(store, way, loser, survivor)
		}
		replaceMember(store, loser, survivor, false)
		store.DeleteNode(loser)
		return survivor
	}, node, into), nil
}

// replaceNodeInWay puts the replacement at every position of the node. The replacement is inserted first so that
// the duplicate removal never drops a neighbor of the replaced node.
func replaceNodeInWay(store *graph.Store, way *osm.Way, node *osm.Node, replacement *osm.Node) {
	for position := way.IndexOf(node.ID); position != -1; position = way.IndexOf(node.ID) {
		store.AddNodeToWay(way, replacement, position+1)
		store.RemoveNodeFromWay(way, position)
	}
}

// checkRestrictionsForMerge refuses merges that would change what a turn restriction means.
func checkRestrictionsForMerge(store *graph.Store, a *osm.Node, b *osm.Node) error {
	restrictions := store.RestrictionsTouchingNode(a)
	for _, restriction := range store.RestrictionsTouchingNode(b) {
		if !containsRestriction(restrictions, restriction) {
			restrictions = append(restrictions, restriction)
		}
	}

	for _, restriction := range restrictions {
		inFrom := func(node *osm.Node) bool { return anyWayContains(restriction.From, node) }
		inTo := func(node *osm.Node) bool { return anyWayContains(restriction.To, node) }
		inVia := func(node *osm.Node) bool {
			for _, via := range restriction.ViaNodes {
				if via == node {
					return true
				}
			}
			return anyWayContains(restriction.ViaWays, node)
		}
		id := restriction.Relation.ID

		if !restriction.IsUTurn() && (inFrom(a) && inTo(b) || inFrom(b) && inTo(a)) {
			return refuse(KindRestriction, "Merging would connect from and to of turn restriction %d", id)
		}
		if (inFrom(a) || inTo(a)) && inVia(b) || (inFrom(b) || inTo(b)) && inVia(a) {
			return refuse(KindRestriction, "Merging would connect a way of turn restriction %d to its via", id)
		}

		keyNodes := store.KeyNodes(restriction)
		memberWays := restriction.MemberWays()
		if keyNodes[a.ID] && anyWayEndsAt(memberWays, b) || keyNodes[b.ID] && anyWayEndsAt(memberWays, a) {
			return refuse(KindRestriction, "Merging would damage the junction of turn restriction %d", id)
		}
	}
	return nil
}

func containsRestriction(restrictions []graph.Restriction, restriction graph.Restriction) bool {
	for _, r := range restrictions {
		if r.Relation == restriction.Relation {
			return true
		}
	}
	return false
}

func anyWayContains(ways []*osm.Way, node *osm.Node) bool {
	for _, way := range ways {
		if way.ContainsNode(node.ID) {
			return true
		}
	}
	return false
}

func anyWayEndsAt(ways []*osm.Way, node *osm.Node) bool {
	for _, way := range ways {
		if way.IsEndpoint(node.ID) {
			return true
		}
	}
	return false
}
