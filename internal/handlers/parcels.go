package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/pricing"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
)

// ParcelHandler manages sender parcel requests.
type ParcelHandler struct {
	store repository.Store
	calc  *pricing.Calculator
}

// NewParcelHandler creates a parcel request handler.
func NewParcelHandler(store repository.Store, calc *pricing.Calculator) *ParcelHandler {
	return &ParcelHandler{store: store, calc: calc}
}

// ParcelListResponse is the JSON response for parcel listings.
type ParcelListResponse struct {
	Parcels []models.ParcelRequest `json:"parcels"`
	Count   int                    `json:"count"`
}

// Create handles POST /api/senders/{senderID}/parcels. When the station
// pair's distance is known, the estimated fare is computed and stored with
// the request; a manual-quote outcome stores no fare.
func (h *ParcelHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p models.ParcelRequest
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid parcel payload: "+err.Error())
		return
	}
	p.SenderID = chi.URLParam(r, "senderID")
	p.Status = models.StatusPending

	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.calc.Quote(p.WeightKg, p.PickupStation, p.DropStation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !quote.RequiresManualQuote {
		p.EstimatedFare = quote.Fee
	}

	if err := h.store.CreateParcelRequest(ctx, &p); err != nil {
		writeInternalError(w, "failed to create parcel request", err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// ListBySender handles GET /api/senders/{senderID}/parcels.
func (h *ParcelHandler) ListBySender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parcels, err := h.store.ParcelRequestsBySender(ctx, chi.URLParam(r, "senderID"))
	if err != nil {
		writeInternalError(w, "failed to retrieve parcel requests", err)
		return
	}

	writeJSON(w, http.StatusOK, ParcelListResponse{Parcels: parcels, Count: len(parcels)})
}

// ListPending handles GET /api/parcels/pending, the pool carriers browse.
func (h *ParcelHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parcels, err := h.store.PendingParcelRequests(ctx)
	if err != nil {
		writeInternalError(w, "failed to retrieve pending parcel requests", err)
		return
	}

	writeJSON(w, http.StatusOK, ParcelListResponse{Parcels: parcels, Count: len(parcels)})
}
