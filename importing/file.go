package importing

import (
	"context"
	"github.com/destel/rill"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"io"
	"os"
	"strings"
	"time"
)

func isSupportedFile(path string) bool {
	return strings.HasSuffix(path, ".osm") || strings.HasSuffix(path, ".pbf")
}

// ReadFile reads all objects of an .osm or .pbf file.
func ReadFile(ctx context.Context, path string) (*osm.OSM, error) {
	if !isSupportedFile(path) {
		return nil, errors.Errorf("Input file %s must be an .osm or .pbf file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open OSM input file %s", path)
	}
	defer f.Close()

	data, err := Read(ctx, f, strings.HasSuffix(path, ".pbf"))
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read OSM input file %s", path)
	}
	return data, nil
}

// Read scans OSM XML or, if isPbf is set, OSM PBF data.
func Read(ctx context.Context, r io.Reader, isPbf bool) (*osm.OSM, error) {
	var scanner osm.Scanner
	if isPbf {
		scanner = osmpbf.New(ctx, r, 1)
	} else {
		scanner = osmxml.New(ctx, r)
	}
	defer scanner.Close()

	sigolo.Debug("Start processing input data")
	readStartTime := time.Now()

	data := &osm.OSM{}
	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			data.Nodes = append(data.Nodes, osmObj)
		case *osm.Way:
			data.Ways = append(data.Ways, osmObj)
		case *osm.Relation:
			data.Relations = append(data.Relations, osmObj)
		case *osm.Bounds:
			data.Bounds = osmObj
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sigolo.Debugf("Read %d nodes, %d ways and %d relations in %s", len(data.Nodes), len(data.Ways), len(data.Relations), time.Since(readStartTime))
	return data, nil
}

// ReadFiles reads the given files concurrently. The done function is called on the calling goroutine once per read
// file, in the order of the given paths.
func ReadFiles(ctx context.Context, paths []string, concurrency int, done func(path string)) ([]*osm.OSM, error) {
	type fileData struct {
		path string
		data *osm.OSM
	}

	for _, path := range paths {
		if !isSupportedFile(path) {
			return nil, errors.Errorf("Input file %s must be an .osm or .pbf file", path)
		}
	}

	if concurrency < 1 {
		concurrency = 1
	}

	files := rill.FromSlice(paths, nil)
	read := rill.OrderedMap(files, concurrency, func(path string) (fileData, error) {
		data, err := ReadFile(ctx, path)
		return fileData{path: path, data: data}, err
	})
	defer rill.DrainNB(read)

	var result []*osm.OSM
	for item := range read {
		if item.Error != nil {
			return nil, item.Error
		}
		result = append(result, item.Value.data)
		if done != nil {
			done(item.Value.path)
		}
	}

	return result, nil
}
