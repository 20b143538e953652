package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"net/http"
	"osmedit/graph"
	"osmedit/importing"
	ownIo "osmedit/io"
	"osmedit/osm"
	"strconv"
	"strings"
	"sync"
)

// Server answers read-only queries against a store. All requests are handled one after another because the store
// must only be used by one goroutine at a time.
type Server struct {
	mutex      sync.Mutex
	store      *graph.Store
	downloader *importing.Downloader
	generator  string
}

// NewServer creates a server for the store. When a downloader is given, missing areas of a bbox query are downloaded
// before the query is answered.
func NewServer(store *graph.Store, downloader *importing.Downloader, generator string) *Server {
	return &Server{
		store:      store,
		downloader: downloader,
		generator:  generator,
	}
}

func StartServer(port string, server *Server) error {
	sigolo.Infof("Start server on port %s", port)
	return http.ListenAndServe(":"+port, server.Router())
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/objects", s.serialized(s.handleObjects)).Methods(http.MethodGet)
	r.HandleFunc("/nodes/{id:-?[0-9]+}/ways", s.serialized(s.handleWaysOfNode)).Methods(http.MethodGet)
	r.HandleFunc("/relations/{id:-?[0-9]+}/members", s.serialized(s.handleMembers)).Methods(http.MethodGet)
	r.HandleFunc("/changes", s.serialized(s.handleChanges)).Methods(http.MethodGet)
	return r
}

func (s *Server) serialized(handler http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		sigolo.Debugf("%s %s", request.Method, request.URL)

		s.mutex.Lock()
		defer s.mutex.Unlock()
		handler(writer, request)
	}
}

func (s *Server) handleObjects(writer http.ResponseWriter, request *http.Request) {
	bound, err := ParseBbox(request.URL.Query().Get("bbox"))
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid bbox: %+v", err)
		return
	}

	if s.downloader != nil {
		result, err := s.downloader.Download(request.Context(), bound)
		if err != nil && !errors.Is(err, context.Canceled) {
			sigolo.Errorf("Download of %v incomplete, %d of %d pieces failed: %+v", bound, result.Failed, result.Pieces, err)
		}
	}

	objects := s.store.FindObjects(bound)
	sigolo.Debugf("Found %d objects", len(objects))
	s.writeGeoJson(writer, objects)
}

func (s *Server) handleWaysOfNode(writer http.ResponseWriter, request *http.Request) {
	id, err := parseID(mux.Vars(request)["id"])
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid ID: %+v", err)
		return
	}

	node := s.store.Node(id)
	if node == nil || node.Deleted {
		writeError(writer, http.StatusNotFound, "Node %d not found", id)
		return
	}

	var objects []osm.Object
	for _, way := range s.store.WaysContaining(node) {
		objects = append(objects, way)
	}
	s.writeGeoJson(writer, objects)
}

func (s *Server) handleMembers(writer http.ResponseWriter, request *http.Request) {
	id, err := parseID(mux.Vars(request)["id"])
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid ID: %+v", err)
		return
	}

	relation := s.store.Relation(id)
	if relation == nil || relation.Deleted {
		writeError(writer, http.StatusNotFound, "Relation %d not found", id)
		return
	}

	s.writeGeoJson(writer, s.store.AllMemberObjects(relation))
}

func (s *Server) handleChanges(writer http.ResponseWriter, request *http.Request) {
	change := importing.ToChange(s.store.ModifiedObjects(), s.generator)

	changeBytes, err := xml.Marshal(change)
	if err != nil {
		writeError(writer, http.StatusInternalServerError, "Error creating osmChange: %+v", err)
		return
	}

	writer.Header().Set("Content-Type", "application/xml")
	_, err = writer.Write(append([]byte(xml.Header), changeBytes...))
	if err != nil {
		sigolo.Errorf("Error writing osmChange response: %+v", err)
	}
}

func (s *Server) writeGeoJson(writer http.ResponseWriter, objects []osm.Object) {
	writer.Header().Set("Content-Type", "application/geo+json")
	err := ownIo.WriteObjectsAsGeoJson(s.store, objects, writer)
	if err != nil {
		sigolo.Errorf("Error writing query result: %+v", err)
	}
}

func writeError(writer http.ResponseWriter, status int, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	sigolo.Errorf("Request failed with status %d: %s", status, message)
	writer.WriteHeader(status)
	_, err := writer.Write([]byte(message))
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}

// ParseBbox parses "minLon,minLat,maxLon,maxLat".
func ParseBbox(value string) (orb.Bound, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.Errorf("Expected four comma separated numbers but got '%s'", value)
	}

	var coordinates [4]float64
	for i, part := range parts {
		coordinate, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, errors.Wrapf(err, "Unable to parse coordinate '%s'", part)
		}
		coordinates[i] = coordinate
	}

	bound := orb.Bound{
		Min: orb.Point{coordinates[0], coordinates[1]},
		Max: orb.Point{coordinates[2], coordinates[3]},
	}
	if bound.Min.Lat() > bound.Max.Lat() || bound.Min.Lat() < -90 || bound.Max.Lat() > 90 {
		return orb.Bound{}, errors.Errorf("Invalid latitude range %f to %f", bound.Min.Lat(), bound.Max.Lat())
	}
	if bound.Min.Lon() < -180 || bound.Max.Lon() > 180 || bound.Min.Lon() > 180 || bound.Max.Lon() < -180 {
		return orb.Bound{}, errors.Errorf("Invalid longitude range %f to %f", bound.Min.Lon(), bound.Max.Lon())
	}
	return bound, nil
}

func parseID(value string) (osm.ID, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Unable to parse ID '%s'", value)
	}
	return osm.ID(id), nil
}
