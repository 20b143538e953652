package storage

import (
	"bufio"
	"bytes"
	"github.com/dustin/go-humanize"
	"github.com/hauke96/sigolo/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
	"io"
	"os"
	"osmedit/graph"
	"osmedit/osm"
	"strings"
)

const (
	snapshotMagic   = "OSME"
	snapshotVersion = 1
)

// Compression is the algorithm used for the payload of a snapshot. The header itself is never compressed.
type Compression byte

const (
	CompressionRaw Compression = iota
	CompressionZstd
	CompressionLz4
	CompressionLzma
)

var compressionNames = map[Compression]string{
	CompressionRaw:  "raw",
	CompressionZstd: "zstd",
	CompressionLz4:  "lz4",
	CompressionLzma: "lzma",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

func ParseCompression(name string) (Compression, error) {
	for compression, compressionName := range compressionNames {
		if strings.EqualFold(name, compressionName) {
			return compression, nil
		}
	}
	return CompressionRaw, errors.Errorf("Unknown compression '%s'", name)
}

// Save writes all objects and the downloaded coverage of the store. The undo history and busy coverage quads are not
// part of a snapshot.
func Save(w io.Writer, store *graph.Store, compression Compression) error {
	dao, err := toSnapshotDao(store)
	if err != nil {
		return err
	}

	payload, err := snapshotSchema.Marshal(dao)
	if err != nil {
		return errors.Wrap(err, "Unable to encode snapshot")
	}

	compressed, err := compress(payload, compression)
	if err != nil {
		return errors.Wrapf(err, "Unable to compress snapshot using %s", compression)
	}

	header := append([]byte(snapshotMagic), snapshotVersion, byte(compression))
	if _, err = w.Write(header); err != nil {
		return errors.Wrap(err, "Unable to write snapshot header")
	}
	if _, err = w.Write(compressed); err != nil {
		return errors.Wrap(err, "Unable to write snapshot")
	}

	sigolo.Debugf("Wrote snapshot with %d nodes, %d ways and %d relations: %s (%s uncompressed)", len(dao.Nodes), len(dao.Ways), len(dao.Relations), humanize.Bytes(uint64(len(compressed)+len(header))), humanize.Bytes(uint64(len(payload))))
	return nil
}

// Load reads a snapshot written by Save into the given store, which must be empty.
func Load(r io.Reader, store *graph.Store) error {
	header := make([]byte, len(snapshotMagic)+2)
	if _, err := io.ReadFull(r, header); err != nil {
		return errors.Wrap(err, "Unable to read snapshot header")
	}
	if string(header[:len(snapshotMagic)]) != snapshotMagic {
		return errors.New("Data is not an osmedit snapshot")
	}
	if version := header[len(snapshotMagic)]; version != snapshotVersion {
		return errors.Errorf("Unsupported snapshot version %d, expected %d", version, snapshotVersion)
	}
	compression := Compression(header[len(snapshotMagic)+1])

	payload, err := decompress(r, compression)
	if err != nil {
		return errors.Wrapf(err, "Unable to decompress snapshot using %s", compression)
	}

	dao := &snapshotDao{}
	if _, err = snapshotSchema.Read(dao, payload, 0); err != nil {
		return errors.Wrap(err, "Unable to decode snapshot")
	}

	err = restoreSnapshotDao(dao, store)
	if err != nil {
		return err
	}

	sigolo.Debugf("Read snapshot with %d nodes, %d ways and %d relations (%s)", len(dao.Nodes), len(dao.Ways), len(dao.Relations), humanize.Bytes(uint64(len(payload))))
	return nil
}

func SaveFile(path string, store *graph.Store, compression Compression) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to create snapshot file %s", path)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	err = Save(writer, store, compression)
	if err != nil {
		return err
	}
	return errors.Wrapf(writer.Flush(), "Unable to write snapshot file %s", path)
}

func LoadFile(path string, store *graph.Store) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to open snapshot file %s", path)
	}
	defer file.Close()

	return errors.Wrapf(Load(bufio.NewReader(file), store), "Unable to load snapshot file %s", path)
}

func compress(payload []byte, compression Compression) ([]byte, error) {
	var buf bytes.Buffer
	var writer io.WriteCloser
	var err error

	switch compression {
	case CompressionRaw:
		return payload, nil
	case CompressionZstd:
		writer, err = zstd.NewWriter(&buf)
	case CompressionLz4:
		writer = lz4.NewWriter(&buf)
	case CompressionLzma:
		writer, err = lzma.NewWriter(&buf)
	default:
		return nil, errors.Errorf("Unknown compression %d", compression)
	}
	if err != nil {
		return nil, err
	}

	if _, err = writer.Write(payload); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(r io.Reader, compression Compression) ([]byte, error) {
	var reader io.Reader

	switch compression {
	case CompressionRaw:
		reader = r
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		reader = decoder
	case CompressionLz4:
		reader = lz4.NewReader(r)
	case CompressionLzma:
		lzmaReader, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		reader = lzmaReader
	default:
		return nil, errors.Errorf("Unknown compression %d", compression)
	}

	return io.ReadAll(reader)
}

func toSnapshotDao(store *graph.Store) (*snapshotDao, error) {
	contents := store.Contents()

	var objects []osm.Object
	for _, node := range contents.Nodes {
		objects = append(objects, node)
	}
	for _, way := range contents.Ways {
		objects = append(objects, way)
	}
	for _, relation := range contents.Relations {
		objects = append(objects, relation)
	}
	tags := newTagIndexFor(objects)

	dao := &snapshotDao{
		LastPlaceholderID: contents.LastPlaceholderID,
		Keys:              tags.keyMap,
	}
	for _, values := range tags.valueMap {
		dao.Values = append(dao.Values, tagValuesDao{Values: values})
	}

	for _, node := range contents.Nodes {
		meta, err := toMetaDao(&node.Meta, tags)
		if err != nil {
			return nil, err
		}
		dao.Nodes = append(dao.Nodes, nodeDao{metaDao: meta, Lat: node.Lat, Lon: node.Lon})
	}
	for _, way := range contents.Ways {
		meta, err := toMetaDao(&way.Meta, tags)
		if err != nil {
			return nil, err
		}
		dao.Ways = append(dao.Ways, wayDao{metaDao: meta, Nodes: way.Nodes})
	}
	for _, relation := range contents.Relations {
		meta, err := toMetaDao(&relation.Meta, tags)
		if err != nil {
			return nil, err
		}
		members := make([]memberDao, len(relation.Members))
		for i, member := range relation.Members {
			members[i] = memberDao{Type: member.Type, Ref: member.Ref, Role: member.Role}
		}
		dao.Relations = append(dao.Relations, relationDao{metaDao: meta, Members: members})
	}

	for _, quad := range store.Coverage().DownloadedQuads() {
		dao.Quads = append(dao.Quads, quadDao{Path: quad.Path(), DownloadDate: toUnixNano(quad.DownloadDate)})
	}

	return dao, nil
}

func restoreSnapshotDao(dao *snapshotDao, store *graph.Store) error {
	var valueMap [][]string
	for _, values := range dao.Values {
		valueMap = append(valueMap, values.Values)
	}
	if len(valueMap) != len(dao.Keys) {
		return errors.Errorf("Snapshot contains %d keys but values for %d keys", len(dao.Keys), len(valueMap))
	}
	tags := NewTagIndex(dao.Keys, valueMap)

	contents := graph.Contents{LastPlaceholderID: dao.LastPlaceholderID}
	for i := range dao.Nodes {
		n := &dao.Nodes[i]
		node := osm.NewNode(n.ID, n.Lat, n.Lon)
		if err := n.toMeta(&node.Meta, tags); err != nil {
			return errors.Wrapf(err, "Unable to restore node %d", n.ID)
		}
		contents.Nodes = append(contents.Nodes, node)
	}
	for i := range dao.Ways {
		w := &dao.Ways[i]
		way := osm.NewWay(w.ID, w.Nodes)
		if err := w.toMeta(&way.Meta, tags); err != nil {
			return errors.Wrapf(err, "Unable to restore way %d", w.ID)
		}
		contents.Ways = append(contents.Ways, way)
	}
	for i := range dao.Relations {
		r := &dao.Relations[i]
		var members []osm.Member
		for _, member := range r.Members {
			members = append(members, osm.Member{Type: member.Type, Ref: member.Ref, Role: member.Role})
		}
		relation := osm.NewRelation(r.ID, members)
		if err := r.toMeta(&relation.Meta, tags); err != nil {
			return errors.Wrapf(err, "Unable to restore relation %d", r.ID)
		}
		contents.Relations = append(contents.Relations, relation)
	}

	err := store.Restore(contents)
	if err != nil {
		return errors.Wrap(err, "Unable to restore snapshot contents")
	}

	for _, quad := range dao.Quads {
		store.Coverage().MarkDownloaded(quad.Path, fromUnixNano(quad.DownloadDate))
	}

	return nil
}
