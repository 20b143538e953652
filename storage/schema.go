package storage

import (
	"osmedit/osm"
	"osmedit/util"
	"time"
)

type tagDao struct {
	Key   int
	Value int
}

type metaDao struct {
	ID          osm.ID
	Version     int
	Changeset   int64
	User        string
	UID         int64
	Timestamp   int64 // Unix nanoseconds, 0 for unknown timestamps.
	Visible     bool
	Deleted     bool
	ModifyCount int32
	Tags        []tagDao
}

type nodeDao struct {
	metaDao
	Lat float64
	Lon float64
}

type wayDao struct {
	metaDao
	Nodes []osm.ID
}

type memberDao struct {
	Type osm.OsmObjectType
	Ref  osm.ID
	Role string
}

type relationDao struct {
	metaDao
	Members []memberDao
}

type tagValuesDao struct {
	Values []string
}

type quadDao struct {
	Path         []byte
	DownloadDate int64
}

type snapshotDao struct {
	LastPlaceholderID osm.ID
	Keys              []string
	Values            []tagValuesDao
	Nodes             []nodeDao
	Ways              []wayDao
	Relations         []relationDao
	Quads             []quadDao
}

var (
	metaItems = []util.BinaryItem{
		&util.BinaryDataItem{FieldName: "ID", BinaryType: util.DatatypeInt64},
		&util.BinaryDataItem{FieldName: "Version", BinaryType: util.DatatypeInt32},
		&util.BinaryDataItem{FieldName: "Changeset", BinaryType: util.DatatypeInt64},
		&util.BinaryDataItem{FieldName: "User", BinaryType: util.DatatypeString},
		&util.BinaryDataItem{FieldName: "UID", BinaryType: util.DatatypeInt64},
		&util.BinaryDataItem{FieldName: "Timestamp", BinaryType: util.DatatypeInt64},
		&util.BinaryDataItem{FieldName: "Visible", BinaryType: util.DatatypeBool},
		&util.BinaryDataItem{FieldName: "Deleted", BinaryType: util.DatatypeBool},
		&util.BinaryDataItem{FieldName: "ModifyCount", BinaryType: util.DatatypeInt32},
		&util.BinaryCollectionItem{
			FieldName: "Tags",
			ItemSchema: util.BinarySchema{
				Items: []util.BinaryItem{
					&util.BinaryDataItem{FieldName: "Key", BinaryType: util.DatatypeInt24},
					&util.BinaryDataItem{FieldName: "Value", BinaryType: util.DatatypeInt24},
				},
			},
		},
	}

	nodeSchema = util.BinarySchema{
		Items: withMeta(
			&util.BinaryDataItem{FieldName: "Lat", BinaryType: util.DatatypeFloat64},
			&util.BinaryDataItem{FieldName: "Lon", BinaryType: util.DatatypeFloat64},
		),
	}

	waySchema = util.BinarySchema{
		Items: withMeta(
			&util.BinaryRawCollectionItem{FieldName: "Nodes", BinaryType: util.DatatypeInt64},
		),
	}

	relationSchema = util.BinarySchema{
		Items: withMeta(
			&util.BinaryCollectionItem{
				FieldName: "Members",
				ItemSchema: util.BinarySchema{
					Items: []util.BinaryItem{
						&util.BinaryDataItem{FieldName: "Type", BinaryType: util.DatatypeByte},
						&util.BinaryDataItem{FieldName: "Ref", BinaryType: util.DatatypeInt64},
						&util.BinaryDataItem{FieldName: "Role", BinaryType: util.DatatypeString},
					},
				},
			},
		),
	}

	snapshotSchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "LastPlaceholderID", BinaryType: util.DatatypeInt64},
			&util.BinaryRawCollectionItem{FieldName: "Keys", BinaryType: util.DatatypeString},
			&util.BinaryCollectionItem{
				FieldName: "Values",
				ItemSchema: util.BinarySchema{
					Items: []util.BinaryItem{
						&util.BinaryRawCollectionItem{FieldName: "Values", BinaryType: util.DatatypeString},
					},
				},
			},
			&util.BinaryCollectionItem{FieldName: "Nodes", ItemSchema: nodeSchema},
			&util.BinaryCollectionItem{FieldName: "Ways", ItemSchema: waySchema},
			&util.BinaryCollectionItem{FieldName: "Relations", ItemSchema: relationSchema},
			&util.BinaryCollectionItem{
				FieldName: "Quads",
				ItemSchema: util.BinarySchema{
					Items: []util.BinaryItem{
						&util.BinaryRawCollectionItem{FieldName: "Path", BinaryType: util.DatatypeByte},
						&util.BinaryDataItem{FieldName: "DownloadDate", BinaryType: util.DatatypeInt64},
					},
				},
			},
		},
	}
)

func withMeta(items ...util.BinaryItem) []util.BinaryItem {
	result := make([]util.BinaryItem, 0, len(metaItems)+len(items))
	result = append(result, metaItems...)
	return append(result, items...)
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(nanos int64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

func toMetaDao(meta *osm.Meta, tags *TagIndex) (metaDao, error) {
	encodedTags, err := tags.encode(meta.Tags)
	if err != nil {
		return metaDao{}, err
	}
	return metaDao{
		ID:          meta.ID,
		Version:     meta.Version,
		Changeset:   meta.Changeset,
		User:        meta.User,
		UID:         meta.UID,
		Timestamp:   toUnixNano(meta.Timestamp),
		Visible:     meta.Visible,
		Deleted:     meta.Deleted,
		ModifyCount: meta.ModifyCount,
		Tags:        encodedTags,
	}, nil
}

func (m *metaDao) toMeta(meta *osm.Meta, tags *TagIndex) error {
	decodedTags, err := tags.decode(m.Tags)
	if err != nil {
		return err
	}
	meta.ID = m.ID
	meta.Version = m.Version
	meta.Changeset = m.Changeset
	meta.User = m.User
	meta.UID = m.UID
	meta.Timestamp = fromUnixNano(m.Timestamp)
	meta.Visible = m.Visible
	meta.Deleted = m.Deleted
	meta.ModifyCount = m.ModifyCount
	meta.Tags = decodedTags
	return nil
}
