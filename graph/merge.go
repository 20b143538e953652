package graph

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"osmedit/osm"
)

// Batch is a set of objects received from the server, e.g. the result of downloading one coverage quad.
type Batch struct {
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

func (b *Batch) Len() int {
	return len(b.Nodes) + len(b.Ways) + len(b.Relations)
}

// MergeResult reports what Merge did with the objects of a batch.
type MergeResult struct {
	Added    int
	Updated  int
	Skipped  int
	Modified int
}

// Merge inserts or updates the objects of the batch. Objects not newer than the known version are ignored, as are
// objects with local modifications. The batch is validated first, nothing is changed when validation fails. Merging
// is not undoable.
func (s *Store) Merge(batch *Batch) (MergeResult, error) {
	err := s.validateBatch(batch)
	if err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{}
	var touched []osm.Object
	var movedNodes []*osm.Node

	for _, incoming := range batch.Nodes {
		existing := s.nodes[incoming.ID]
		switch s.mergeDecision(existing, incoming, &result) {
		case mergeAdd:
			incoming.SetWayCount(0)
			s.nodes[incoming.ID] = incoming
			// Way counts are fixed below along with all ways referencing this node.
			touched = append(touched, incoming)
		case mergeUpdate:
			if existing.Lat != incoming.Lat || existing.Lon != incoming.Lon {
				movedNodes = append(movedNodes, existing)
			}
			existing.Meta = mergedMeta(existing.Meta, incoming.Meta)
			existing.Lat = incoming.Lat
			existing.Lon = incoming.Lon
			touched = append(touched, existing)
		}
	}

	for _, incoming := range batch.Ways {
		if !incoming.Visible {
			incoming.Nodes = nil
		}
		incoming.Nodes = removeConsecutiveDuplicates(incoming.Nodes)

		existing := s.ways[incoming.ID]
		switch s.mergeDecision(existing, incoming, &result) {
		case mergeAdd:
			s.ways[incoming.ID] = incoming
			for _, id := range uniqueIDs(incoming.Nodes) {
				s.nodes[id].IncreaseWayCount()
			}
			touched = append(touched, incoming)
		case mergeUpdate:
			for _, id := range uniqueIDs(existing.Nodes) {
				s.nodes[id].DecreaseWayCount()
			}
			existing.Meta = mergedMeta(existing.Meta, incoming.Meta)
			existing.Nodes = incoming.Nodes
			for _, id := range uniqueIDs(existing.Nodes) {
				s.nodes[id].IncreaseWayCount()
			}
			touched = append(touched, existing)
		}
	}

	for _, incoming := range batch.Relations {
		if !incoming.Visible {
			incoming.Members = nil
		}

		existing := s.relations[incoming.ID]
		switch s.mergeDecision(existing, incoming, &result) {
		case mergeAdd:
			s.relations[incoming.ID] = incoming
			touched = append(touched, incoming)
		case mergeUpdate:
			for _, member := range existing.Members {
				if memberObject := s.Object(member.ExtendedID()); memberObject != nil {
					memberObject.GetMeta().RemoveParentRelation(existing.ID)
				}
			}
			existing.Meta = mergedMeta(existing.Meta, incoming.Meta)
			existing.Members = incoming.Members
			touched = append(touched, existing)
		}
	}

	s.applyServerDeletions(touched)
	s.resolveAfterMerge(touched, movedNodes)
	s.generation++

	sigolo.Debugf("Merged batch: %d added, %d updated, %d skipped, %d locally modified", result.Added, result.Updated, result.Skipped, result.Modified)
	s.debugCheck("merge")
	return result, nil
}

type mergeAction int

const (
	mergeSkip mergeAction = iota
	mergeAdd
	mergeUpdate
)

func (s *Store) mergeDecision(existing osm.Object, incoming osm.Object, result *MergeResult) mergeAction {
	// A typed nil pointer isn't a nil interface, so this checks the concrete value.
	if isNilObject(existing) {
		result.Added++
		return mergeAdd
	}

	existingMeta := existing.GetMeta()
	if incoming.GetMeta().Version <= existingMeta.Version {
		result.Skipped++
		return mergeSkip
	}
	if existingMeta.IsModified() {
		sigolo.Debugf("Keep locally modified %s instead of version %d from server", existing.GetExtendedID(), incoming.GetMeta().Version)
		result.Modified++
		return mergeSkip
	}

	result.Updated++
	return mergeUpdate
}

func isNilObject(obj osm.Object) bool {
	switch o := obj.(type) {
	case *osm.Node:
		return o == nil
	case *osm.Way:
		return o == nil
	case *osm.Relation:
		return o == nil
	}
	return obj == nil
}

// mergedMeta takes the server data of the incoming object but keeps the local bookkeeping.
func mergedMeta(existing osm.Meta, incoming osm.Meta) osm.Meta {
	result := incoming
	result.Deleted = false
	result.ModifyCount = 0
	for _, id := range existing.ParentRelationIDs() {
		result.AddParentRelation(id)
	}
	if bound, ok := existing.CachedBound(); ok {
		result.SetCachedBound(bound)
	} else {
		result.InvalidateBound()
	}
	return result
}

func (s *Store) validateBatch(batch *Batch) error {
	seen := map[osm.ExtendedID]bool{}
	check := func(obj osm.Object) error {
		id := obj.GetExtendedID()
		if id.ID <= 0 {
			return errors.Errorf("Object %s from server has no server ID", id)
		}
		if seen[id] {
			return errors.Errorf("Object %s is contained twice in the batch", id)
		}
		seen[id] = true
		return nil
	}

	for _, node := range batch.Nodes {
		if err := check(node); err != nil {
			return err
		}
	}
	for _, way := range batch.Ways {
		if err := check(way); err != nil {
			return err
		}
	}
	for _, relation := range batch.Relations {
		if err := check(relation); err != nil {
			return err
		}
	}

	for _, way := range batch.Ways {
		if !way.Visible {
			continue
		}
		for _, id := range way.Nodes {
			if _, ok := s.nodes[id]; !ok && !seen[osm.ExtendedID{Type: osm.OsmObjNode, ID: id}] {
				return errors.Errorf("Way %d references node %d which is neither in the batch nor known", way.ID, id)
			}
		}
	}

	return nil
}

// applyServerDeletions turns objects the server reported as not visible into deleted ones. Their node and member
// lists have already been cleared.
func (s *Store) applyServerDeletions(touched []osm.Object) {
	for _, obj := range touched {
		meta := obj.GetMeta()
		if meta.Visible {
			continue
		}

		if !meta.Deleted {
			if _, ok := meta.CachedBound(); ok {
				s.indexRemove(obj)
			}
			meta.Deleted = true
		}
		meta.InvalidateBound()
	}
}

// resolveAfterMerge restores parent relations, bounding boxes and index entries of everything the merge touched.
// All relations are recomputed, because any of them may contain a changed member.
func (s *Store) resolveAfterMerge(touched []osm.Object, movedNodes []*osm.Node) {
	for _, relation := range s.relations {
		if relation.Deleted {
			continue
		}
		for _, member := range relation.Members {
			if memberObject := s.Object(member.ExtendedID()); memberObject != nil {
				memberObject.GetMeta().AddParentRelation(relation.ID)
			}
		}
	}

	waysToRefresh := map[osm.ID]*osm.Way{}
	for _, node := range movedNodes {
		for _, way := range s.ways {
			if way.ContainsNode(node.ID) {
				waysToRefresh[way.ID] = way
			}
		}
	}

	for _, obj := range touched {
		if way, ok := obj.(*osm.Way); ok {
			waysToRefresh[way.ID] = way
			continue
		}
		if _, ok := obj.(*osm.Relation); ok {
			continue
		}
		s.placeInIndex(obj)
	}
	for _, way := range waysToRefresh {
		s.placeInIndex(way)
	}
	for _, relation := range s.relations {
		s.placeInIndex(relation)
	}
}

// placeInIndex adds, moves or keeps the object in the object index according to its current bounding box.
func (s *Store) placeInIndex(obj osm.Object) {
	meta := obj.GetMeta()
	if meta.Deleted {
		return
	}

	newBound := s.computeBound(obj)
	oldBound, wasIndexed := meta.CachedBound()
	meta.SetCachedBound(newBound)
	if wasIndexed {
		s.index.UpdateMember(obj, oldBound, newBound)
	} else {
		s.index.AddMember(obj, newBound)
	}
}

func uniqueIDs(ids []osm.ID) []osm.ID {
	seen := map[osm.ID]bool{}
	result := make([]osm.ID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}

func removeConsecutiveDuplicates(ids []osm.ID) []osm.ID {
	result := make([]osm.ID, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		result = append(result, id)
	}
	return result
}
