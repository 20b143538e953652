package importing

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	"os"
	"osmedit/graph"
	ownOsm "osmedit/osm"
	"time"
)

// Import reads the given files and merges them into the store. Objects contained in several files are merged once
// using their highest version. Ways referencing nodes that are neither in the files nor in the store are skipped. The
// bounds given in the files are marked as downloaded.
func Import(ctx context.Context, store *graph.Store, paths []string, showProgress bool) (graph.MergeResult, error) {
	if len(paths) == 0 {
		return graph.MergeResult{}, errors.New("No input files given")
	}

	sigolo.Infof("Start import of %d files", len(paths))
	importStartTime := time.Now()

	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.New(len(paths))
		bar.Output = os.Stderr
		bar.SetWidth(80)
		bar.Start()
	}

	files, err := ReadFiles(ctx, paths, len(paths), func(path string) {
		sigolo.Debugf("Finished reading %s", path)
		if bar != nil {
			bar.Increment()
		}
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return graph.MergeResult{}, err
	}

	batch := combine(files)
	skipped := dropIncompleteWays(store, batch)
	if skipped > 0 {
		sigolo.Infof("Skipped %d ways referencing nodes outside of the input data", skipped)
	}

	result, err := store.Merge(batch)
	if err != nil {
		return graph.MergeResult{}, errors.Wrap(err, "Unable to merge input data")
	}

	for _, file := range files {
		if file.Bounds == nil {
			continue
		}
		for _, piece := range store.Coverage().MissingPieces(toBound(file.Bounds)) {
			store.Coverage().UpdateDownloadStatus(piece, true, store.Now())
		}
	}

	nodes, ways, relations := store.Counts()
	sigolo.Infof("Finished import in %s: %s nodes, %s ways and %s relations", time.Since(importStartTime), humanize.Comma(int64(nodes)), humanize.Comma(int64(ways)), humanize.Comma(int64(relations)))
	return result, nil
}

func toBound(bounds *osm.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{bounds.MinLon, bounds.MinLat},
		Max: orb.Point{bounds.MaxLon, bounds.MaxLat},
	}
}

// combine converts all files into one batch. Of objects contained several times only the highest version is kept.
func combine(files []*osm.OSM) *graph.Batch {
	nodes := map[ownOsm.ID]*ownOsm.Node{}
	ways := map[ownOsm.ID]*ownOsm.Way{}
	relations := map[ownOsm.ID]*ownOsm.Relation{}
	result := &graph.Batch{}

	for _, file := range files {
		batch := FromOsm(file, true)
		for _, node := range batch.Nodes {
			if existing, ok := nodes[node.ID]; !ok || existing.Version < node.Version {
				nodes[node.ID] = node
			}
		}
		for _, way := range batch.Ways {
			if existing, ok := ways[way.ID]; !ok || existing.Version < way.Version {
				ways[way.ID] = way
			}
		}
		for _, relation := range batch.Relations {
			if existing, ok := relations[relation.ID]; !ok || existing.Version < relation.Version {
				relations[relation.ID] = relation
			}
		}
	}

	for _, node := range nodes {
		result.Nodes = append(result.Nodes, node)
	}
	for _, way := range ways {
		result.Ways = append(result.Ways, way)
	}
	for _, relation := range relations {
		result.Relations = append(result.Relations, relation)
	}
	return result
}

func dropIncompleteWays(store *graph.Store, batch *graph.Batch) int {
	known := map[ownOsm.ID]bool{}
	for _, node := range batch.Nodes {
		known[node.ID] = true
	}

	kept := batch.Ways[:0]
	for _, way := range batch.Ways {
		complete := true
		for _, id := range way.Nodes {
			if !known[id] && store.Node(id) == nil {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, way)
		}
	}

	skipped := len(batch.Ways) - len(kept)
	batch.Ways = kept
	return skipped
}
