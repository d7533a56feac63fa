package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
)

// JourneyHandler manages a carrier's journeys. Authentication is handled
// upstream by the web product; the carrier ID arrives as a route parameter.
type JourneyHandler struct {
	store repository.Store
}

// NewJourneyHandler creates a journey handler.
func NewJourneyHandler(store repository.Store) *JourneyHandler {
	return &JourneyHandler{store: store}
}

// ListResponse is the JSON response for journey listings.
type ListResponse struct {
	Journeys []models.Journey `json:"journeys"`
	Count    int              `json:"count"`
}

// List handles GET /api/carriers/{carrierID}/journeys. ?active=true
// restricts to active journeys.
func (h *JourneyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrierID := chi.URLParam(r, "carrierID")

	var journeys []models.Journey
	var err error
	if r.URL.Query().Get("active") == "true" {
		journeys, err = h.store.ActiveJourneysByCarrier(ctx, carrierID)
	} else {
		journeys, err = h.store.JourneysByCarrier(ctx, carrierID)
	}
	if err != nil {
		writeInternalError(w, "failed to retrieve journeys", err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Journeys: journeys, Count: len(journeys)})
}

// Create handles POST /api/carriers/{carrierID}/journeys.
func (h *JourneyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var j models.Journey
	if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
		writeError(w, http.StatusBadRequest, "invalid journey payload: "+err.Error())
		return
	}
	j.CarrierID = chi.URLParam(r, "carrierID")
	j.IsActive = true

	if err := j.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateJourney(ctx, &j); err != nil {
		writeInternalError(w, "failed to create journey", err)
		return
	}

	writeJSON(w, http.StatusCreated, j)
}

// Deactivate handles POST /api/carriers/{carrierID}/journeys/{journeyID}/deactivate.
func (h *JourneyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrierID := chi.URLParam(r, "carrierID")

	journeyID, err := uuid.Parse(chi.URLParam(r, "journeyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journey id")
		return
	}

	if err := h.store.DeactivateJourney(ctx, journeyID, carrierID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "journey not found")
			return
		}
		writeInternalError(w, "failed to deactivate journey", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/carriers/{carrierID}/journeys/{journeyID}.
// Refused with 409 while the carrier has accepted or in-transit parcels.
func (h *JourneyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrierID := chi.URLParam(r, "carrierID")

	journeyID, err := uuid.Parse(chi.URLParam(r, "journeyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journey id")
		return
	}

	if err := h.store.DeleteJourney(ctx, journeyID, carrierID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "journey not found")
		case errors.Is(err, repository.ErrJourneyHasParcels):
			writeError(w, http.StatusConflict, "journey has accepted parcels and cannot be deleted")
		default:
			writeInternalError(w, "failed to delete journey", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
