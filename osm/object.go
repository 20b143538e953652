package osm

import (
	"github.com/paulmach/orb"
	"sort"
	"strings"
	"time"
)

// Object is implemented by Node, Way and Relation.
type Object interface {
	GetID() ID
	GetType() OsmObjectType
	GetExtendedID() ExtendedID
	GetMeta() *Meta
	GetTags() Tags
}

// Meta contains the data common to all object types. The set of parent relations and the cached bounding box are
// maintained by the graph store and must not be altered by anything else.
type Meta struct {
	ID          ID
	Version     int
	Changeset   int64
	User        string
	UID         int64
	Timestamp   time.Time
	Visible     bool
	Tags        Tags
	Deleted     bool
	ModifyCount int32

	parentRelations map[ID]struct{}

	bound      orb.Bound
	boundValid bool
}

func (m *Meta) GetMeta() *Meta {
	return m
}

func (m *Meta) GetID() ID {
	return m.ID
}

func (m *Meta) GetTags() Tags {
	return m.Tags
}

// IsModified is true when the object has local changes not yet uploaded. Placeholders are always modified.
func (m *Meta) IsModified() bool {
	return m.ModifyCount > 0 || m.ID.IsPlaceholder()
}

func (m *Meta) AddParentRelation(id ID) {
	if m.parentRelations == nil {
		m.parentRelations = map[ID]struct{}{}
	}
	m.parentRelations[id] = struct{}{}
}

func (m *Meta) RemoveParentRelation(id ID) {
	delete(m.parentRelations, id)
}

func (m *Meta) HasParentRelation(id ID) bool {
	_, ok := m.parentRelations[id]
	return ok
}

func (m *Meta) ParentRelationCount() int {
	return len(m.parentRelations)
}

// ParentRelationIDs returns the IDs of all relations having this object as member, sorted ascending.
func (m *Meta) ParentRelationIDs() []ID {
	ids := make([]ID, 0, len(m.parentRelations))
	for id := range m.parentRelations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// CachedBound returns the last bounding box set via SetCachedBound. The second value is false when the cache has been
// invalidated.
func (m *Meta) CachedBound() (orb.Bound, bool) {
	return m.bound, m.boundValid
}

func (m *Meta) SetCachedBound(bound orb.Bound) {
	m.bound = bound
	m.boundValid = true
}

func (m *Meta) InvalidateBound() {
	m.boundValid = false
}

type Node struct {
	Meta
	Lat float64
	Lon float64

	wayCount int
}

func NewNode(id ID, lat float64, lon float64) *Node {
	return &Node{
		Meta: Meta{ID: id, Visible: true},
		Lat:  lat,
		Lon:  lon,
	}
}

func (n *Node) GetType() OsmObjectType {
	return OsmObjNode
}

func (n *Node) GetExtendedID() ExtendedID {
	return ExtendedID{Type: OsmObjNode, ID: n.ID}
}

func (n *Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

// WayCount is the number of ways containing this node. A way listing the node several times counts once.
func (n *Node) WayCount() int {
	return n.wayCount
}

func (n *Node) SetWayCount(count int) {
	n.wayCount = count
}

func (n *Node) IncreaseWayCount() {
	n.wayCount++
}

func (n *Node) DecreaseWayCount() {
	n.wayCount--
}

type Way struct {
	Meta
	Nodes []ID
}

func NewWay(id ID, nodes []ID) *Way {
	return &Way{
		Meta:  Meta{ID: id, Visible: true},
		Nodes: nodes,
	}
}

func (w *Way) GetType() OsmObjectType {
	return OsmObjWay
}

func (w *Way) GetExtendedID() ExtendedID {
	return ExtendedID{Type: OsmObjWay, ID: w.ID}
}

// IsClosed is true when the way has at least three node entries and the first equals the last one.
func (w *Way) IsClosed() bool {
	return len(w.Nodes) >= 3 && w.Nodes[0] == w.Nodes[len(w.Nodes)-1]
}

func (w *Way) FirstNode() ID {
	if len(w.Nodes) == 0 {
		return 0
	}
	return w.Nodes[0]
}

func (w *Way) LastNode() ID {
	if len(w.Nodes) == 0 {
		return 0
	}
	return w.Nodes[len(w.Nodes)-1]
}

func (w *Way) IsEndpoint(id ID) bool {
	return len(w.Nodes) > 0 && (w.Nodes[0] == id || w.Nodes[len(w.Nodes)-1] == id)
}

// IndexOf returns the first position of the node or -1.
func (w *Way) IndexOf(id ID) int {
	for i, n := range w.Nodes {
		if n == id {
			return i
		}
	}
	return -1
}

func (w *Way) ContainsNode(id ID) bool {
	return w.IndexOf(id) != -1
}

// Member is one entry of a relation. The same object may appear several times with different or equal roles.
type Member struct {
	Type OsmObjectType
	Ref  ID
	Role string
}

func (m Member) ExtendedID() ExtendedID {
	return ExtendedID{Type: m.Type, ID: m.Ref}
}

type Relation struct {
	Meta
	Members []Member
}

func NewRelation(id ID, members []Member) *Relation {
	return &Relation{
		Meta:    Meta{ID: id, Visible: true},
		Members: members,
	}
}

func (r *Relation) GetType() OsmObjectType {
	return OsmObjRelation
}

func (r *Relation) GetExtendedID() ExtendedID {
	return ExtendedID{Type: OsmObjRelation, ID: r.ID}
}

// IsMultipolygon also covers "type=building" relations, which share the outer/inner ring semantic.
func (r *Relation) IsMultipolygon() bool {
	t := r.Tags["type"]
	return t == "multipolygon" || t == "building"
}

// IsRestriction matches "restriction" as well as conditional or vehicle specific ones like "restriction:hgv".
func (r *Relation) IsRestriction() bool {
	return strings.HasPrefix(r.Tags["type"], "restriction")
}

func (r *Relation) IsRoute() bool {
	return r.Tags["type"] == "route"
}

func (r *Relation) IsBoundary() bool {
	return r.Tags["type"] == "boundary"
}

func (r *Relation) IsWaterway() bool {
	return r.Tags["type"] == "waterway"
}

// HasMember returns true when at least one member references the given object.
func (r *Relation) HasMember(id ExtendedID) bool {
	for _, m := range r.Members {
		if m.Type == id.Type && m.Ref == id.ID {
			return true
		}
	}
	return false
}

// MemberIndexes returns all positions where the given object appears, in ascending order.
func (r *Relation) MemberIndexes(id ExtendedID) []int {
	var indexes []int
	for i, m := range r.Members {
		if m.Type == id.Type && m.Ref == id.ID {
			indexes = append(indexes, i)
		}
	}
	return indexes
}
