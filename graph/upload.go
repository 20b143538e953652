package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"osmedit/osm"
)

// ModifiedObjects contains everything that has to be uploaded. Deleted objects are only contained when they exist
// on the server.
type ModifiedObjects struct {
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

func (m ModifiedObjects) Len() int {
	return len(m.Nodes) + len(m.Ways) + len(m.Relations)
}

func needsUpload(meta *osm.Meta) bool {
	if meta.Deleted {
		return !meta.ID.IsPlaceholder() && meta.ModifyCount > 0
	}
	return meta.IsModified()
}

func (s *Store) ModifiedObjects() ModifiedObjects {
	result := ModifiedObjects{}
	for _, node := range s.Nodes() {
		if needsUpload(&node.Meta) {
			result.Nodes = append(result.Nodes, node)
		}
	}
	for _, way := range s.Ways() {
		if needsUpload(&way.Meta) {
			result.Ways = append(result.Ways, way)
		}
	}
	for _, relation := range s.Relations() {
		if needsUpload(&relation.Meta) {
			result.Relations = append(result.Relations, relation)
		}
	}
	return result
}

// UploadResult is the answer of the server for one uploaded object. NewID is 0 for deleted objects.
type UploadResult struct {
	Type       osm.OsmObjectType
	OldID      osm.ID
	NewID      osm.ID
	NewVersion int
}

// ApplyUploadResults assigns the server IDs and versions to the uploaded objects and resets their modification
// counters. Uploaded deletions are removed from the store. Placeholder IDs are replaced everywhere they are
// referenced. The undo history is cleared, because it refers to the state before the upload.
func (s *Store) ApplyUploadResults(results []UploadResult) error {
	for _, result := range results {
		obj := s.Object(osm.ExtendedID{Type: result.Type, ID: result.OldID})
		if obj == nil {
			return errors.Errorf("Upload result for unknown object %s", osm.ExtendedID{Type: result.Type, ID: result.OldID})
		}
		if result.NewID == 0 && !obj.GetMeta().Deleted {
			return errors.Errorf("Upload result removes %s which isn't deleted", obj.GetExtendedID())
		}
		if result.NewID < 0 {
			return errors.Errorf("Upload result assigns placeholder ID %d to %s", result.NewID, obj.GetExtendedID())
		}
		if result.NewID != 0 && result.NewID != result.OldID && s.Object(osm.ExtendedID{Type: result.Type, ID: result.NewID}) != nil {
			return errors.Errorf("Upload result assigns ID %d to %s but this ID is already in use", result.NewID, obj.GetExtendedID())
		}
	}

	for _, result := range results {
		obj := s.Object(osm.ExtendedID{Type: result.Type, ID: result.OldID})
		meta := obj.GetMeta()

		if result.NewID == 0 {
			s.purge(obj)
			continue
		}

		if result.NewID != result.OldID {
			s.migrateID(obj, result.NewID)
		}
		meta.Version = result.NewVersion
		meta.ModifyCount = 0
	}

	s.undo.RemoveAll()
	s.generation++
	sigolo.Debugf("Applied %d upload results", len(results))
	s.debugCheck("upload")
	return nil
}

// migrateID replaces the ID of the object in the dictionary and in all way node lists and relation member lists
// referencing it.
func (s *Store) migrateID(obj osm.Object, newID osm.ID) {
	oldID := obj.GetID()
	sigolo.Tracef("Migrate %s to ID %d", obj.GetExtendedID(), newID)

	switch o := obj.(type) {
	case *osm.Node:
		for _, way := range s.WaysContaining(o) {
			for i, id := range way.Nodes {
				if id == oldID {
					way.Nodes[i] = newID
				}
			}
		}
		delete(s.nodes, oldID)
		s.nodes[newID] = o
	case *osm.Way:
		delete(s.ways, oldID)
		s.ways[newID] = o
	case *osm.Relation:
		for _, member := range s.AllDirectMembers(o) {
			member.GetMeta().RemoveParentRelation(oldID)
			member.GetMeta().AddParentRelation(newID)
		}
		delete(s.relations, oldID)
		s.relations[newID] = o
	}

	for _, relation := range s.ParentRelations(obj) {
		for i, member := range relation.Members {
			if member.Type == obj.GetType() && member.Ref == oldID {
				relation.Members[i].Ref = newID
			}
		}
	}

	obj.GetMeta().ID = newID
}

// AllDirectMembers returns the known members of the relation without descending into nested relations. Objects
// appearing several times are returned once.
func (s *Store) AllDirectMembers(relation *osm.Relation) []osm.Object {
	seen := map[osm.ExtendedID]bool{}
	var result []osm.Object
	for _, member := range relation.Members {
		id := member.ExtendedID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if memberObject := s.Object(id); memberObject != nil {
			result = append(result, memberObject)
		}
	}
	return result
}

// purge removes a deleted object from the store for good. Deleted objects have no references left, so only the
// dictionaries are concerned.
func (s *Store) purge(obj osm.Object) {
	switch o := obj.(type) {
	case *osm.Node:
		delete(s.nodes, o.ID)
	case *osm.Way:
		delete(s.ways, o.ID)
	case *osm.Relation:
		delete(s.relations, o.ID)
	}
}
