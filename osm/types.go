package osm

import (
	"fmt"
	"strconv"
)

// OsmObjectType is an enum for all the three existing object types in OpenStreetMap.
type OsmObjectType int

const (
	OsmObjNode OsmObjectType = iota
	OsmObjWay
	OsmObjRelation
)

func (o OsmObjectType) String() string {
	switch o {
	case OsmObjNode:
		return "node"
	case OsmObjWay:
		return "way"
	case OsmObjRelation:
		return "relation"
	}
	return fmt.Sprintf("[!UNKNOWN OsmObjectType %d]", int(o))
}

// ParseOsmObjectType is the inverse of String.
func ParseOsmObjectType(s string) (OsmObjectType, error) {
	switch s {
	case "node":
		return OsmObjNode, nil
	case "way":
		return OsmObjWay, nil
	case "relation":
		return OsmObjRelation, nil
	}
	return -1, fmt.Errorf("unknown OSM object type '%s'", s)
}

// ID identifies an object within its type. Positive values are assigned by the server, negative ones are client side
// placeholders of objects that haven't been uploaded yet.
type ID int64

func (id ID) IsPlaceholder() bool {
	return id < 0
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ExtendedID identifies an object across all three types.
type ExtendedID struct {
	Type OsmObjectType
	ID   ID
}

func (e ExtendedID) String() string {
	switch e.Type {
	case OsmObjNode:
		return "n" + e.ID.String()
	case OsmObjWay:
		return "w" + e.ID.String()
	case OsmObjRelation:
		return "r" + e.ID.String()
	}
	return e.Type.String() + e.ID.String()
}
