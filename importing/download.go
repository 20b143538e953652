package importing

import (
	"context"
	"github.com/destel/rill"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"osmedit/graph"
	"osmedit/index"
	"time"
)

// Fetcher loads all objects of an area, like the "map" call of the OSM API does. Implementations must be safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, bound orb.Bound) (*graph.Batch, error)
}

// FileFetcher serves previously read OSM data. A fetch returns all nodes inside the area, all ways using them with
// all of their nodes and all relations having one of these objects as member.
type FileFetcher struct {
	nodes     map[osm.NodeID]*osm.Node
	ways      []*osm.Way
	relations []*osm.Relation
}

func NewFileFetcher(data ...*osm.OSM) *FileFetcher {
	fetcher := &FileFetcher{
		nodes: map[osm.NodeID]*osm.Node{},
	}
	for _, d := range data {
		for _, node := range d.Nodes {
			fetcher.nodes[node.ID] = node
		}
		fetcher.ways = append(fetcher.ways, d.Ways...)
		fetcher.relations = append(fetcher.relations, d.Relations...)
	}
	return fetcher
}

func (f *FileFetcher) Fetch(ctx context.Context, bound orb.Bound) (*graph.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &osm.OSM{}
	nodeIncluded := map[osm.NodeID]bool{}
	addNode := func(node *osm.Node) {
		if !nodeIncluded[node.ID] {
			nodeIncluded[node.ID] = true
			result.Nodes = append(result.Nodes, node)
		}
	}

	inside := map[osm.NodeID]bool{}
	for id, node := range f.nodes {
		if bound.Contains(orb.Point{node.Lon, node.Lat}) {
			inside[id] = true
		}
	}

	wayIncluded := map[osm.WayID]bool{}
	for _, way := range f.ways {
		touches := false
		for _, wayNode := range way.Nodes {
			if inside[wayNode.ID] {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}

		complete := true
		for _, wayNode := range way.Nodes {
			if _, ok := f.nodes[wayNode.ID]; !ok {
				complete = false
				break
			}
		}
		if !complete {
			sigolo.Debugf("Way %d references nodes that are not part of the input data, it's skipped", way.ID)
			continue
		}

		wayIncluded[way.ID] = true
		result.Ways = append(result.Ways, way)
		for _, wayNode := range way.Nodes {
			addNode(f.nodes[wayNode.ID])
		}
	}

	for id := range inside {
		addNode(f.nodes[id])
	}

	for _, relation := range f.relations {
		for _, member := range relation.Members {
			if (member.Type == osm.TypeNode && nodeIncluded[osm.NodeID(member.Ref)]) || (member.Type == osm.TypeWay && wayIncluded[osm.WayID(member.Ref)]) {
				result.Relations = append(result.Relations, relation)
				break
			}
		}
	}

	sigolo.Tracef("Fetched %d nodes, %d ways and %d relations for %v", len(result.Nodes), len(result.Ways), len(result.Relations), bound)
	return FromOsm(result, true), nil
}

// DownloadResult summarizes one Download call.
type DownloadResult struct {
	Pieces int
	Failed int
	Merge  graph.MergeResult
}

// Downloader fills the missing pieces of a region. The pieces are fetched concurrently but merged one after another
// on the goroutine calling Download, so the store is never accessed concurrently.
type Downloader struct {
	store       *graph.Store
	fetcher     Fetcher
	concurrency int
}

func NewDownloader(store *graph.Store, fetcher Fetcher, concurrency int) *Downloader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Downloader{
		store:       store,
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// Download fetches and merges every missing piece of the region. A failed piece stays missing and is returned by
// the next call again. The returned error is the last fetch or merge error, if any.
func (d *Downloader) Download(ctx context.Context, region orb.Bound) (DownloadResult, error) {
	type piece struct {
		quad  *index.CoverageQuad
		bound orb.Bound
	}
	type fetchedPiece struct {
		piece
		batch *graph.Batch
		err   error
	}

	var pieces []piece
	for _, quad := range d.store.Coverage().MissingPieces(region) {
		pieces = append(pieces, piece{quad: quad, bound: quad.Bound})
	}

	result := DownloadResult{Pieces: len(pieces)}
	if len(pieces) == 0 {
		return result, nil
	}

	sigolo.Debugf("Download %d pieces of region %v", len(pieces), region)
	downloadStartTime := time.Now()

	fetched := rill.Map(rill.FromSlice(pieces, nil), d.concurrency, func(p piece) (fetchedPiece, error) {
		batch, err := d.fetcher.Fetch(ctx, p.bound)
		return fetchedPiece{piece: p, batch: batch, err: err}, nil
	})

	var lastErr error
	for item := range fetched {
		p := item.Value
		if p.err != nil {
			sigolo.Debugf("Fetching piece %v failed: %+v", p.bound, p.err)
			d.store.Coverage().UpdateDownloadStatus(p.quad, false, d.store.Now())
			result.Failed++
			lastErr = errors.Wrapf(p.err, "Unable to fetch area %v", p.bound)
			continue
		}

		mergeResult, err := d.store.Merge(p.batch)
		if err != nil {
			sigolo.Errorf("Merging piece %v failed: %+v", p.bound, err)
			d.store.Coverage().UpdateDownloadStatus(p.quad, false, d.store.Now())
			result.Failed++
			lastErr = errors.Wrapf(err, "Unable to merge data of area %v", p.bound)
			continue
		}

		d.store.Coverage().UpdateDownloadStatus(p.quad, true, d.store.Now())
		result.Merge.Added += mergeResult.Added
		result.Merge.Updated += mergeResult.Updated
		result.Merge.Skipped += mergeResult.Skipped
		result.Merge.Modified += mergeResult.Modified
	}

	sigolo.Debugf("Downloaded %d of %d pieces in %s", result.Pieces-result.Failed, result.Pieces, time.Since(downloadStartTime))
	return result, lastErr
}
