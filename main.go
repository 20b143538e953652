package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"os"
	"osmedit/config"
	"osmedit/graph"
	"osmedit/importing"
	ownIo "osmedit/io"
	"osmedit/storage"
	"osmedit/web"
	"strings"
)

const VERSION = "v0.1.0"
const generator = "osmedit " + VERSION

var cli struct {
	Logging     string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version     VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Config      string      `help:"Optional YAML file with session and policy settings." placeholder:"<config-file>" type:"existingfile"`
	Snapshot    string      `help:"The snapshot file holding the local graph." placeholder:"<snapshot-file>" default:"osmedit.snapshot"`
	Compression string      `help:"Compression of written snapshots." enum:"raw,zstd,lz4,lzma" default:"zstd"`
	Import      struct {
		Input      []string `help:"The input files. Either .osm or .pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
		NoProgress bool     `help:"Hide the progress bar."`
	} `cmd:"" help:"Imports the given OSM files into the snapshot."`
	Query struct {
		Bbox   string `help:"The area as minLon,minLat,maxLon,maxLat." placeholder:"<bbox>" arg:""`
		Output string `help:"GeoJSON output file. Writes to stdout when empty." short:"o" placeholder:"<output-file>"`
	} `cmd:"" help:"Returns all objects of the snapshot within the given area as GeoJSON."`
	Serve struct {
		Port   string   `help:"The port of the HTTP server." default:"8080"`
		Source []string `help:"OSM files areas are downloaded from when a query hits a missing area." placeholder:"<source-file>" type:"existingfile"`
	} `cmd:"" help:"Starts an HTTP server answering queries against the snapshot."`
	Changes struct {
		Output string `help:"osmChange output file. Writes to stdout when empty." short:"o" placeholder:"<output-file>"`
	} `cmd:"" help:"Writes all local modifications of the snapshot as osmChange."`
	Check struct {
	} `cmd:"" help:"Checks the snapshot for consistency."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("osmedit"),
		kong.Description("A local OSM editing graph with import, query and change export."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	cfg, err := config.Load(cli.Config)
	sigolo.FatalCheck(err)

	compression, err := storage.ParseCompression(cli.Compression)
	sigolo.FatalCheck(err)

	store, err := loadStore(cfg)
	sigolo.FatalCheck(err)

	background := context.Background()

	switch ctx.Command() {
	case "import <input>":
		result, err := importing.Import(background, store, cli.Import.Input, !cli.Import.NoProgress)
		sigolo.FatalCheck(err)
		sigolo.Infof("Added %s and updated %s objects", humanize.Comma(int64(result.Added)), humanize.Comma(int64(result.Updated)))

		err = saveStore(store, compression)
		sigolo.FatalCheck(err)
	case "query <bbox>":
		bound, err := web.ParseBbox(cli.Query.Bbox)
		sigolo.FatalCheck(err)

		objects := store.FindObjects(bound)
		sigolo.Debugf("Found %d objects", len(objects))

		if cli.Query.Output == "" {
			err = ownIo.WriteObjectsAsGeoJson(store, objects, os.Stdout)
		} else {
			err = ownIo.WriteObjectsAsGeoJsonFile(store, objects, cli.Query.Output)
		}
		sigolo.FatalCheck(err)
	case "serve":
		var downloader *importing.Downloader
		if len(cli.Serve.Source) > 0 {
			sources, err := importing.ReadFiles(background, cli.Serve.Source, cfg.Download.Concurrency, func(path string) {
				sigolo.Infof("Read download source %s", path)
			})
			sigolo.FatalCheck(err)
			downloader = importing.NewDownloader(store, importing.NewFileFetcher(sources...), cfg.Download.Concurrency)
		}

		err = web.StartServer(cli.Serve.Port, web.NewServer(store, downloader, generator))
		sigolo.FatalCheck(err)
	case "changes":
		err = writeChanges(store, cli.Changes.Output)
		sigolo.FatalCheck(err)
	case "check":
		err = store.CheckConsistency()
		sigolo.FatalCheck(err)
		nodes, ways, relations := store.Counts()
		sigolo.Infof("Snapshot is consistent: %s nodes, %s ways, %s relations", humanize.Comma(int64(nodes)), humanize.Comma(int64(ways)), humanize.Comma(int64(relations)))
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

// loadStore creates the store and fills it from the snapshot file, if that exists.
func loadStore(cfg config.Config) (*graph.Store, error) {
	store := graph.New(cfg.GraphSession(), cfg.GraphPolicy())

	_, err := os.Stat(cli.Snapshot)
	if errors.Is(err, os.ErrNotExist) {
		sigolo.Infof("Snapshot %s does not exist, start with an empty graph", cli.Snapshot)
		return store, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to access snapshot %s", cli.Snapshot)
	}

	return store, storage.LoadFile(cli.Snapshot, store)
}

func saveStore(store *graph.Store, compression storage.Compression) error {
	err := storage.SaveFile(cli.Snapshot, store, compression)
	if err != nil {
		return err
	}

	info, err := os.Stat(cli.Snapshot)
	if err != nil {
		return errors.Wrapf(err, "Unable to access snapshot %s", cli.Snapshot)
	}
	sigolo.Infof("Wrote snapshot %s (%s, %s)", cli.Snapshot, humanize.Bytes(uint64(info.Size())), compression)
	return nil
}

func writeChanges(store *graph.Store, path string) error {
	modified := store.ModifiedObjects()
	change := importing.ToChange(modified, generator)
	sigolo.Infof("Found %d modified objects", modified.Len())

	changeBytes, err := xml.MarshalIndent(change, "", " ")
	if err != nil {
		return errors.Wrap(err, "Unable to create osmChange")
	}
	changeBytes = append([]byte(xml.Header), changeBytes...)

	if path == "" {
		_, err = os.Stdout.Write(changeBytes)
		return errors.Wrap(err, "Unable to write osmChange")
	}
	return errors.Wrapf(os.WriteFile(path, changeBytes, 0644), "Unable to write osmChange file %s", path)
}
