package handlers

import (
	"errors"
	"net/http"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/schedule"
)

// ScheduleHandler ingests raw schedule uploads into the distance graph.
type ScheduleHandler struct {
	store repository.Store
	cache *GraphCache
}

// NewScheduleHandler creates a schedule ingest handler.
func NewScheduleHandler(store repository.Store, cache *GraphCache) *ScheduleHandler {
	return &ScheduleHandler{store: store, cache: cache}
}

// ImportResponse reports the outcome of one ingest batch.
type ImportResponse struct {
	Rows      int `json:"rows"`
	Parsed    int `json:"parsed"`
	Malformed int `json:"malformed"`
	Stations  int `json:"stations"`
	Pairs     int `json:"pairs"`
}

// Import handles POST /api/schedules/import. The body is the raw delimited
// schedule text (header line included). Malformed rows are skipped and
// counted; a batch with zero valid rows is rejected outright since it means
// the upload is not in the expected format.
func (h *ScheduleHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body := http.MaxBytesReader(w, r.Body, 64<<20)
	stops, stats, err := schedule.NewReader(body).ReadAll()
	if errors.Is(err, schedule.ErrNoValidRows) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "no valid rows in upload; expected the 12-column train schedule format",
			Details: map[string]interface{}{
				"rows":      stats.Rows,
				"malformed": stats.Malformed,
			},
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	g := routegraph.Build(stops)
	if err := h.store.SaveGraph(ctx, g); err != nil {
		writeInternalError(w, "failed to persist distance graph", err)
		return
	}

	if err := h.cache.Reload(ctx); err != nil {
		writeInternalError(w, "failed to reload distance graph", err)
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Rows:      stats.Rows,
		Parsed:    stats.Parsed,
		Malformed: stats.Malformed,
		Stations:  len(g.Stations),
		Pairs:     len(g.Pairs),
	})
}
