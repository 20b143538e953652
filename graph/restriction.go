package graph

import (
	"osmedit/osm"
)

const (
	RoleFrom = "from"
	RoleVia  = "via"
	RoleTo   = "to"
)

// Restriction contains the resolved parts of a turn restriction. Unknown members are left out.
type Restriction struct {
	Relation *osm.Relation
	From     []*osm.Way
	To       []*osm.Way
	ViaNodes []*osm.Node
	ViaWays  []*osm.Way
}

func (r Restriction) IsUTurn() bool {
	if len(r.From) != 1 || len(r.To) != 1 {
		return false
	}
	return r.From[0] == r.To[0]
}

// MemberWays returns the from, via and to ways.
func (r Restriction) MemberWays() []*osm.Way {
	var ways []*osm.Way
	ways = append(ways, r.From...)
	ways = append(ways, r.ViaWays...)
	ways = append(ways, r.To...)
	return ways
}

func (s *Store) RestrictionParts(relation *osm.Relation) Restriction {
	result := Restriction{Relation: relation}
	for _, member := range relation.Members {
		switch {
		case member.Role == RoleFrom && member.Type == osm.OsmObjWay:
			if way, ok := s.ways[member.Ref]; ok {
				result.From = append(result.From, way)
			}
		case member.Role == RoleTo && member.Type == osm.OsmObjWay:
			if way, ok := s.ways[member.Ref]; ok {
				result.To = append(result.To, way)
			}
		case member.Role == RoleVia && member.Type == osm.OsmObjNode:
			if node, ok := s.nodes[member.Ref]; ok {
				result.ViaNodes = append(result.ViaNodes, node)
			}
		case member.Role == RoleVia && member.Type == osm.OsmObjWay:
			if way, ok := s.ways[member.Ref]; ok {
				result.ViaWays = append(result.ViaWays, way)
			}
		}
	}
	return result
}

// KeyNodes returns the junctions a turn restriction depends on: via nodes, and for via ways the endpoints they share
// with the from and to ways.
func (s *Store) KeyNodes(restriction Restriction) map[osm.ID]bool {
	keyNodes := map[osm.ID]bool{}
	for _, node := range restriction.ViaNodes {
		keyNodes[node.ID] = true
	}
	for _, via := range restriction.ViaWays {
		for _, other := range append(append([]*osm.Way{}, restriction.From...), restriction.To...) {
			for _, endpoint := range []osm.ID{via.FirstNode(), via.LastNode()} {
				if other.ContainsNode(endpoint) {
					keyNodes[endpoint] = true
				}
			}
		}
	}
	return keyNodes
}

// RestrictionsOf returns all turn restrictions the object is a direct member of.
func (s *Store) RestrictionsOf(obj osm.Object) []Restriction {
	var result []Restriction
	for _, relation := range s.ParentRelations(obj) {
		if relation.IsRestriction() {
			result = append(result, s.RestrictionParts(relation))
		}
	}
	return result
}

// RestrictionsTouchingNode returns the turn restrictions having the node or one of its ways as member.
func (s *Store) RestrictionsTouchingNode(node *osm.Node) []Restriction {
	seen := map[osm.ID]bool{}
	var result []Restriction

	add := func(obj osm.Object) {
		for _, relation := range s.ParentRelations(obj) {
			if relation.IsRestriction() && !seen[relation.ID] {
				seen[relation.ID] = true
				result = append(result, s.RestrictionParts(relation))
			}
		}
	}

	add(node)
	for _, way := range s.WaysContaining(node) {
		add(way)
	}
	return result
}
