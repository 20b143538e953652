package importing

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"osmedit/graph"
	ownOsm "osmedit/osm"
	"sort"
)

// FromOsm converts parsed OSM data into a batch for graph.Store.Merge. Files without history don't carry the visible
// attribute, so allVisible should be set for them. Otherwise every object not marked visible is treated as deleted on
// the server.
func FromOsm(data *osm.OSM, allVisible bool) *graph.Batch {
	batch := &graph.Batch{}
	for _, node := range data.Nodes {
		batch.Nodes = append(batch.Nodes, toNode(node, allVisible))
	}
	for _, way := range data.Ways {
		batch.Ways = append(batch.Ways, toWay(way, allVisible))
	}
	for _, relation := range data.Relations {
		batch.Relations = append(batch.Relations, toRelation(relation, allVisible))
	}
	return batch
}

func toMeta(id int64, version int, changeset osm.ChangesetID, user string, uid osm.UserID, visible bool, tags osm.Tags) ownOsm.Meta {
	meta := ownOsm.Meta{
		ID:        ownOsm.ID(id),
		Version:   version,
		Changeset: int64(changeset),
		User:      user,
		UID:       int64(uid),
		Visible:   visible,
	}
	if len(tags) > 0 {
		meta.Tags = ownOsm.Tags(tags.Map())
	}
	return meta
}

func toNode(node *osm.Node, allVisible bool) *ownOsm.Node {
	result := ownOsm.NewNode(ownOsm.ID(node.ID), node.Lat, node.Lon)
	result.Meta = toMeta(int64(node.ID), node.Version, node.ChangesetID, node.User, node.UserID, allVisible || node.Visible, node.Tags)
	result.Timestamp = node.Timestamp
	return result
}

func toWay(way *osm.Way, allVisible bool) *ownOsm.Way {
	nodes := make([]ownOsm.ID, 0, len(way.Nodes))
	for _, wayNode := range way.Nodes {
		nodes = append(nodes, ownOsm.ID(wayNode.ID))
	}

	result := ownOsm.NewWay(ownOsm.ID(way.ID), nodes)
	result.Meta = toMeta(int64(way.ID), way.Version, way.ChangesetID, way.User, way.UserID, allVisible || way.Visible, way.Tags)
	result.Timestamp = way.Timestamp
	return result
}

func toRelation(relation *osm.Relation, allVisible bool) *ownOsm.Relation {
	members := make([]ownOsm.Member, 0, len(relation.Members))
	for _, member := range relation.Members {
		memberType, ok := toObjectType(member.Type)
		if !ok {
			sigolo.Debugf("Ignore member of unknown type '%s' in relation %d", member.Type, relation.ID)
			continue
		}
		members = append(members, ownOsm.Member{Type: memberType, Ref: ownOsm.ID(member.Ref), Role: member.Role})
	}

	result := ownOsm.NewRelation(ownOsm.ID(relation.ID), members)
	result.Meta = toMeta(int64(relation.ID), relation.Version, relation.ChangesetID, relation.User, relation.UserID, allVisible || relation.Visible, relation.Tags)
	result.Timestamp = relation.Timestamp
	return result
}

func toObjectType(t osm.Type) (ownOsm.OsmObjectType, bool) {
	switch t {
	case osm.TypeNode:
		return ownOsm.OsmObjNode, true
	case osm.TypeWay:
		return ownOsm.OsmObjWay, true
	case osm.TypeRelation:
		return ownOsm.OsmObjRelation, true
	}
	return -1, false
}

func fromObjectType(t ownOsm.OsmObjectType) osm.Type {
	switch t {
	case ownOsm.OsmObjWay:
		return osm.TypeWay
	case ownOsm.OsmObjRelation:
		return osm.TypeRelation
	}
	return osm.TypeNode
}

// ToChange creates the osmChange document uploading the given objects. Placeholders end up in the create section,
// deleted objects in the delete section and everything else in the modify section.
func ToChange(modified graph.ModifiedObjects, generator string) *osm.Change {
	change := &osm.Change{
		Version:   "0.6",
		Generator: generator,
		Create:    &osm.OSM{},
		Modify:    &osm.OSM{},
		Delete:    &osm.OSM{},
	}

	for _, node := range modified.Nodes {
		section := sectionFor(change, &node.Meta)
		section.Nodes = append(section.Nodes, fromNode(node))
	}
	for _, way := range modified.Ways {
		section := sectionFor(change, &way.Meta)
		section.Ways = append(section.Ways, fromWay(way))
	}
	for _, relation := range modified.Relations {
		section := sectionFor(change, &relation.Meta)
		section.Relations = append(section.Relations, fromRelation(relation))
	}

	sigolo.Debugf("Created change with %d creations, %d modifications and %d deletions", sectionLen(change.Create), sectionLen(change.Modify), sectionLen(change.Delete))
	return change
}

func sectionFor(change *osm.Change, meta *ownOsm.Meta) *osm.OSM {
	if meta.Deleted {
		return change.Delete
	}
	if meta.ID.IsPlaceholder() {
		return change.Create
	}
	return change.Modify
}

func sectionLen(o *osm.OSM) int {
	return len(o.Nodes) + len(o.Ways) + len(o.Relations)
}

func fromTags(tags ownOsm.Tags) osm.Tags {
	if len(tags) == 0 {
		return nil
	}
	result := make(osm.Tags, 0, len(tags))
	for key, value := range tags {
		result = append(result, osm.Tag{Key: key, Value: value})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

func fromNode(node *ownOsm.Node) *osm.Node {
	return &osm.Node{
		ID:          osm.NodeID(node.ID),
		User:        node.User,
		UserID:      osm.UserID(node.UID),
		Visible:     !node.Deleted,
		Version:     node.Version,
		ChangesetID: osm.ChangesetID(node.Changeset),
		Timestamp:   node.Timestamp,
		Tags:        fromTags(node.Tags),
		Lat:         node.Lat,
		Lon:         node.Lon,
	}
}

func fromWay(way *ownOsm.Way) *osm.Way {
	nodes := make(osm.WayNodes, 0, len(way.Nodes))
	for _, id := range way.Nodes {
		nodes = append(nodes, osm.WayNode{ID: osm.NodeID(id)})
	}

	return &osm.Way{
		ID:          osm.WayID(way.ID),
		User:        way.User,
		UserID:      osm.UserID(way.UID),
		Visible:     !way.Deleted,
		Version:     way.Version,
		ChangesetID: osm.ChangesetID(way.Changeset),
		Timestamp:   way.Timestamp,
		Nodes:       nodes,
		Tags:        fromTags(way.Tags),
	}
}

func fromRelation(relation *ownOsm.Relation) *osm.Relation {
	members := make(osm.Members, 0, len(relation.Members))
	for _, member := range relation.Members {
		members = append(members, osm.Member{Type: fromObjectType(member.Type), Ref: int64(member.Ref), Role: member.Role})
	}

	return &osm.Relation{
		ID:          osm.RelationID(relation.ID),
		User:        relation.User,
		UserID:      osm.UserID(relation.UID),
		Visible:     !relation.Deleted,
		Version:     relation.Version,
		ChangesetID: osm.ChangesetID(relation.Changeset),
		Timestamp:   relation.Timestamp,
		Tags:        fromTags(relation.Tags),
		Members:     members,
	}
}
