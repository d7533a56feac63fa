package handlers

import (
	"net/http"
	"strings"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// StationHandler answers station search and distance lookups against the
// cached distance graph.
type StationHandler struct {
	cache *GraphCache
}

// NewStationHandler creates a station lookup handler.
func NewStationHandler(cache *GraphCache) *StationHandler {
	return &StationHandler{cache: cache}
}

// SearchResponse is the JSON response for GET /api/stations/search.
type SearchResponse struct {
	Stations []station.Station `json:"stations"`
	Count    int               `json:"count"`
}

// Search handles GET /api/stations/search?q=. Matches codes exactly and
// normalized names by substring.
func (h *StationHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	stations := h.cache.Graph().SearchStations(q, 25)

	writeJSON(w, http.StatusOK, SearchResponse{Stations: stations, Count: len(stations)})
}

// DistanceResponse is the JSON response for GET /api/distance.
type DistanceResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distanceKm"`
}

// Distance handles GET /api/distance?from=&to=. The identifiers may be
// station codes or human-typed names. An unknown pair is a 404, not a zero.
func (h *StationHandler) Distance(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to parameters are required")
		return
	}
	if strings.EqualFold(from, to) {
		writeError(w, http.StatusBadRequest, "from and to must be different stations")
		return
	}

	km, ok := h.cache.Resolve(from, to)
	if !ok {
		writeError(w, http.StatusNotFound, "no known distance between the requested stations")
		return
	}

	writeJSON(w, http.StatusOK, DistanceResponse{From: from, To: to, DistanceKm: km})
}
