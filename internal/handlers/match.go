package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/matching"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
)

// MatchHandler scores journey/parcel compatibility and serves the carrier
// dashboard's accept gate.
type MatchHandler struct {
	store   repository.Store
	matcher *matching.Matcher
}

// NewMatchHandler creates a match handler.
func NewMatchHandler(store repository.Store, matcher *matching.Matcher) *MatchHandler {
	return &MatchHandler{store: store, matcher: matcher}
}

// MatchResponse is the JSON response for GET /api/match.
type MatchResponse struct {
	JourneyID uuid.UUID       `json:"journeyId"`
	ParcelID  uuid.UUID       `json:"parcelId"`
	Result    matching.Result `json:"result"`

	// CanAccept is the dashboard gate: a confident route match on the
	// calling carrier's own active journey, with the caller's identity
	// verification confirmed. The verification check itself (Aadhaar,
	// phone) lives in the web product; its outcome arrives here as the
	// verified flag.
	CanAccept bool `json:"canAccept"`
	Threshold int  `json:"threshold"`
}

// Match handles GET /api/match?journeyId=&parcelId=&carrierId=&verified=.
// Recomputed on every call; match results are never persisted.
//
// The match result only needs the two IDs. The accept gate additionally
// needs to know who is asking: carrierId must be the journey's owner and
// verified=true must be passed, otherwise canAccept stays false.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	journeyID, err := uuid.Parse(r.URL.Query().Get("journeyId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "journeyId must be a valid id")
		return
	}
	parcelID, err := uuid.Parse(r.URL.Query().Get("parcelId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "parcelId must be a valid id")
		return
	}
	carrierID := r.URL.Query().Get("carrierId")
	verified := r.URL.Query().Get("verified") == "true"

	journey, err := h.store.GetJourney(ctx, journeyID)
	if err != nil {
		h.writeLookupError(w, "journey", err)
		return
	}
	parcel, err := h.store.GetParcelRequest(ctx, parcelID)
	if err != nil {
		h.writeLookupError(w, "parcel request", err)
		return
	}

	result := h.matcher.Match(journey, parcel)

	canAccept := result.IsMatch &&
		journey.IsActive &&
		parcel.Status == models.StatusPending &&
		carrierID != "" &&
		journey.CarrierID == carrierID &&
		verified

	writeJSON(w, http.StatusOK, MatchResponse{
		JourneyID: journeyID,
		ParcelID:  parcelID,
		Result:    result,
		CanAccept: canAccept,
		Threshold: h.matcher.Threshold(),
	})
}

// MatchesForJourneyResponse lists pending parcels scored against one journey.
type MatchesForJourneyResponse struct {
	JourneyID uuid.UUID     `json:"journeyId"`
	Matches   []ParcelMatch `json:"matches"`
	Count     int           `json:"count"`
}

// ParcelMatch pairs a pending parcel with its match result.
type ParcelMatch struct {
	Parcel models.ParcelRequest `json:"parcel"`
	Result matching.Result      `json:"result"`
}

// MatchesForJourney handles GET /api/journeys/{journeyID}/matches: every
// pending parcel scored against the journey, matches first.
func (h *MatchHandler) MatchesForJourney(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	journeyID, err := uuid.Parse(chi.URLParam(r, "journeyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journey id")
		return
	}

	journey, err := h.store.GetJourney(ctx, journeyID)
	if err != nil {
		h.writeLookupError(w, "journey", err)
		return
	}

	pending, err := h.store.PendingParcelRequests(ctx)
	if err != nil {
		writeInternalError(w, "failed to retrieve pending parcel requests", err)
		return
	}

	var matches []ParcelMatch
	for i := range pending {
		result := h.matcher.Match(journey, &pending[i])
		if result.IsMatch {
			matches = append(matches, ParcelMatch{Parcel: pending[i], Result: result})
		}
	}

	writeJSON(w, http.StatusOK, MatchesForJourneyResponse{
		JourneyID: journeyID,
		Matches:   matches,
		Count:     len(matches),
	})
}

func (h *MatchHandler) writeLookupError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, entity+" not found")
		return
	}
	writeInternalError(w, "failed to retrieve "+entity, err)
}
