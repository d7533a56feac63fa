package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/matching"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/pricing"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/schedule"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	graph    *routegraph.Graph
	journeys map[uuid.UUID]*models.Journey
	parcels  map[uuid.UUID]*models.ParcelRequest

	saveGraphErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		graph:    routegraph.New(),
		journeys: make(map[uuid.UUID]*models.Journey),
		parcels:  make(map[uuid.UUID]*models.ParcelRequest),
	}
}

func (s *stubStore) AllStations(ctx context.Context) ([]station.Station, error) {
	var out []station.Station
	for _, st := range s.graph.Stations {
		out = append(out, st)
	}
	return out, nil
}

func (s *stubStore) AllDistancePairs(ctx context.Context) (map[routegraph.PairKey]*routegraph.DistancePair, error) {
	return s.graph.Pairs, nil
}

func (s *stubStore) SaveGraph(ctx context.Context, g *routegraph.Graph) error {
	if s.saveGraphErr != nil {
		return s.saveGraphErr
	}
	s.graph.Merge(g)
	return nil
}

func (s *stubStore) LoadGraph(ctx context.Context) (*routegraph.Graph, error) {
	return s.graph, nil
}

func (s *stubStore) CreateJourney(ctx context.Context, j *models.Journey) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	s.journeys[j.ID] = j
	return nil
}

func (s *stubStore) GetJourney(ctx context.Context, id uuid.UUID) (*models.Journey, error) {
	j, ok := s.journeys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return j, nil
}

func (s *stubStore) JourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	var out []models.Journey
	for _, j := range s.journeys {
		if j.CarrierID == carrierID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *stubStore) ActiveJourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	var out []models.Journey
	for _, j := range s.journeys {
		if j.CarrierID == carrierID && j.IsActive {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *stubStore) DeactivateJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	j, ok := s.journeys[id]
	if !ok || j.CarrierID != carrierID {
		return repository.ErrNotFound
	}
	j.IsActive = false
	return nil
}

func (s *stubStore) DeleteJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	j, ok := s.journeys[id]
	if !ok || j.CarrierID != carrierID {
		return repository.ErrNotFound
	}
	for _, p := range s.parcels {
		if p.CarrierID == carrierID &&
			(p.Status == models.StatusAccepted || p.Status == models.StatusInTransit) {
			return repository.ErrJourneyHasParcels
		}
	}
	delete(s.journeys, id)
	return nil
}

func (s *stubStore) CreateParcelRequest(ctx context.Context, p *models.ParcelRequest) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	s.parcels[p.ID] = p
	return nil
}

func (s *stubStore) GetParcelRequest(ctx context.Context, id uuid.UUID) (*models.ParcelRequest, error) {
	p, ok := s.parcels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubStore) ParcelRequestsBySender(ctx context.Context, senderID string) ([]models.ParcelRequest, error) {
	var out []models.ParcelRequest
	for _, p := range s.parcels {
		if p.SenderID == senderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubStore) PendingParcelRequests(ctx context.Context) ([]models.ParcelRequest, error) {
	var out []models.ParcelRequest
	for _, p := range s.parcels {
		if p.Status == models.StatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }
func (s *stubStore) Close() error                   { return nil }

const scheduleHeader = "Train No,Train Name,SEQ,Station Code,Station Name,Arrival time,Departure Time,Distance,Source Station,Source Station Name,Destination Station,Destination Station Name\n"

func seededStoreAndCache(t *testing.T) (*stubStore, *GraphCache) {
	t.Helper()

	store := newStubStore()
	store.graph = routegraph.Build([]schedule.Stop{
		{TrainID: "12951", Sequence: 1, StationCode: "NDLS", StationName: "NEW DELHI", DistanceFromOrigin: 0},
		{TrainID: "12951", Sequence: 2, StationCode: "BCT", StationName: "MUMBAI CENTRAL", DistanceFromOrigin: 1384},
	})

	cache := NewGraphCache(store)
	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("failed to prime graph cache: %v", err)
	}
	return store, cache
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return v
}

func TestScheduleImport(t *testing.T) {
	store, cache := seededStoreAndCache(t)
	h := NewScheduleHandler(store, cache)

	body := scheduleHeader +
		`"107","SWV-MAO-VLNK","1","SWV","SAWANTWADI ROAD","00:00:00","10:25:00","0","SWV","SAWANTWADI ROAD","MAO","MADGOAN JN."` + "\n" +
		`"107","SWV-MAO-VLNK","2","MAO","MADGOAN JN.","12:10:00","00:00:00","60","SWV","SAWANTWADI ROAD","MAO","MADGOAN JN."` + "\n" +
		"garbage line\n"

	req := httptest.NewRequest(http.MethodPost, "/api/schedules/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Import(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	resp := decodeBody[ImportResponse](t, rec)
	if resp.Parsed != 2 || resp.Malformed != 1 {
		t.Errorf("parsed/malformed = %d/%d, want 2/1", resp.Parsed, resp.Malformed)
	}
	if resp.Pairs != 1 {
		t.Errorf("pairs = %d, want 1", resp.Pairs)
	}

	// The cache must see the new pair immediately after import.
	if _, ok := cache.Resolve("SWV", "MAO"); !ok {
		t.Error("imported pair not resolvable through the cache")
	}
}

func TestScheduleImportRejectsEmptyBatch(t *testing.T) {
	store, cache := seededStoreAndCache(t)
	h := NewScheduleHandler(store, cache)

	req := httptest.NewRequest(http.MethodPost, "/api/schedules/import",
		strings.NewReader(scheduleHeader+"not,a,schedule\n"))
	rec := httptest.NewRecorder()
	h.Import(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body)
	}
}

func TestStationDistance(t *testing.T) {
	_, cache := seededStoreAndCache(t)
	h := NewStationHandler(cache)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"known pair by code", "from=NDLS&to=BCT", http.StatusOK},
		{"known pair by name", "from=new+delhi&to=mumbai", http.StatusOK},
		{"unknown pair", "from=NDLS&to=XXXX", http.StatusNotFound},
		{"missing params", "from=NDLS", http.StatusBadRequest},
		{"same station ignoring case", "from=NDLS&to=ndls", http.StatusBadRequest},
		{"same name both sides", "from=new+delhi&to=NEW+DELHI", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/distance?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.Distance(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus == http.StatusOK {
				resp := decodeBody[DistanceResponse](t, rec)
				if resp.DistanceKm != 1384 {
					t.Errorf("distanceKm = %v, want 1384", resp.DistanceKm)
				}
			}
		})
	}
}

func TestStationSearch(t *testing.T) {
	_, cache := seededStoreAndCache(t)
	h := NewStationHandler(cache)

	req := httptest.NewRequest(http.MethodGet, "/api/stations/search?q=delhi", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[SearchResponse](t, rec)
	if resp.Count != 1 || resp.Stations[0].Code != "NDLS" {
		t.Errorf("search result = %+v, want NDLS only", resp)
	}
}

func TestFeeQuote(t *testing.T) {
	_, cache := seededStoreAndCache(t)
	h := NewFeeHandler(pricing.NewCalculator(pricing.DefaultConfig(), cache))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFee    float64
		wantManual bool
	}{
		{"priced quote", "weight=3&from=NDLS&to=BCT", http.StatusOK, 1484, false},
		{"overweight is manual, not an error", "weight=12&from=NDLS&to=BCT", http.StatusOK, 0, true},
		{"unknown route is manual", "weight=3&from=NDLS&to=XXXX", http.StatusOK, 0, true},
		{"non-numeric weight", "weight=abc&from=NDLS&to=BCT", http.StatusBadRequest, 0, false},
		{"zero weight", "weight=0&from=NDLS&to=BCT", http.StatusBadRequest, 0, false},
		{"same station", "weight=3&from=NDLS&to=NDLS", http.StatusBadRequest, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/fees/quote?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.Quote(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decodeBody[QuoteResponse](t, rec)
			if resp.RequiresManualQuote != tt.wantManual {
				t.Errorf("requiresManualQuote = %v, want %v", resp.RequiresManualQuote, tt.wantManual)
			}
			if !tt.wantManual && resp.Fee != tt.wantFee {
				t.Errorf("fee = %v, want %v", resp.Fee, tt.wantFee)
			}
			if tt.wantManual && resp.Display != "" {
				t.Errorf("manual quote should not carry a display fee, got %q", resp.Display)
			}
		})
	}
}

func TestMatchEndpoint(t *testing.T) {
	store, _ := seededStoreAndCache(t)
	h := NewMatchHandler(store, matching.New(matching.DefaultConfig()))

	journeyDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	journey := &models.Journey{
		CarrierID:       "carrier-1",
		TrainNumber:     "12951",
		SourceCode:      "NDLS",
		Stations:        []string{"BRC"},
		DestinationCode: "BCT",
		JourneyDate:     journeyDate,
		IsActive:        true,
	}
	if err := store.CreateJourney(context.Background(), journey); err != nil {
		t.Fatalf("CreateJourney failed: %v", err)
	}

	parcel := &models.ParcelRequest{
		SenderID:      "sender-1",
		PickupStation: "NDLS",
		DropStation:   "BCT",
		WeightKg:      3,
		PickupTime:    journeyDate.Add(-6 * time.Hour),
	}
	if err := store.CreateParcelRequest(context.Background(), parcel); err != nil {
		t.Fatalf("CreateParcelRequest failed: %v", err)
	}

	url := fmt.Sprintf("/api/match?journeyId=%s&parcelId=%s&carrierId=carrier-1&verified=true",
		journey.ID, parcel.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.Match(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[MatchResponse](t, rec)
	if !resp.Result.IsMatch || resp.Result.Confidence != 100 {
		t.Errorf("result = %+v, want full-confidence match", resp.Result)
	}
	if !resp.CanAccept {
		t.Error("verified owner with pending parcel on active journey should be able to accept")
	}

	// Accepted parcels can still be scored but never re-accepted.
	parcel.Status = models.StatusAccepted
	rec = httptest.NewRecorder()
	h.Match(rec, httptest.NewRequest(http.MethodGet, url, nil))
	resp = decodeBody[MatchResponse](t, rec)
	if resp.CanAccept {
		t.Error("accepted parcel must not be acceptable again")
	}

	// Unknown IDs are 404s.
	badURL := fmt.Sprintf("/api/match?journeyId=%s&parcelId=%s", uuid.New(), parcel.ID)
	rec = httptest.NewRecorder()
	h.Match(rec, httptest.NewRequest(http.MethodGet, badURL, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown journey: status = %d, want 404", rec.Code)
	}
}

// The accept gate needs the caller's identity: a match on someone else's
// journey, an anonymous call, or an unverified caller scores fine but can
// never be accepted.
func TestMatchAcceptGateRequiresOwnership(t *testing.T) {
	store, _ := seededStoreAndCache(t)
	h := NewMatchHandler(store, matching.New(matching.DefaultConfig()))

	journeyDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	journey := &models.Journey{
		CarrierID:       "carrier-owner",
		SourceCode:      "NDLS",
		Stations:        []string{"BRC"},
		DestinationCode: "BCT",
		JourneyDate:     journeyDate,
		IsActive:        true,
	}
	if err := store.CreateJourney(context.Background(), journey); err != nil {
		t.Fatalf("CreateJourney failed: %v", err)
	}
	parcel := &models.ParcelRequest{
		SenderID:      "sender-1",
		PickupStation: "NDLS",
		DropStation:   "BCT",
		WeightKg:      3,
		PickupTime:    journeyDate,
	}
	if err := store.CreateParcelRequest(context.Background(), parcel); err != nil {
		t.Fatalf("CreateParcelRequest failed: %v", err)
	}

	base := fmt.Sprintf("/api/match?journeyId=%s&parcelId=%s", journey.ID, parcel.ID)

	tests := []struct {
		name      string
		extra     string
		canAccept bool
	}{
		{"no caller identity", "", false},
		{"wrong carrier", "&carrierId=carrier-other&verified=true", false},
		{"owner but unverified", "&carrierId=carrier-owner", false},
		{"owner verified", "&carrierId=carrier-owner&verified=true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Match(rec, httptest.NewRequest(http.MethodGet, base+tt.extra, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
			}
			resp := decodeBody[MatchResponse](t, rec)
			if !resp.Result.IsMatch {
				t.Fatalf("result = %+v, want a route match in every case", resp.Result)
			}
			if resp.CanAccept != tt.canAccept {
				t.Errorf("canAccept = %v, want %v", resp.CanAccept, tt.canAccept)
			}
		})
	}
}

func TestMatchesForJourney(t *testing.T) {
	store, _ := seededStoreAndCache(t)
	h := NewMatchHandler(store, matching.New(matching.DefaultConfig()))

	journeyDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	journey := &models.Journey{
		CarrierID:       "carrier-1",
		SourceCode:      "NDLS",
		Stations:        []string{"BRC"},
		DestinationCode: "BCT",
		JourneyDate:     journeyDate,
		IsActive:        true,
	}
	if err := store.CreateJourney(context.Background(), journey); err != nil {
		t.Fatalf("CreateJourney failed: %v", err)
	}

	onRoute := &models.ParcelRequest{
		SenderID: "sender-1", PickupStation: "NDLS", DropStation: "BRC",
		WeightKg: 2, PickupTime: journeyDate,
	}
	offRoute := &models.ParcelRequest{
		SenderID: "sender-2", PickupStation: "SWV", DropStation: "MAO",
		WeightKg: 2, PickupTime: journeyDate,
	}
	for _, p := range []*models.ParcelRequest{onRoute, offRoute} {
		if err := store.CreateParcelRequest(context.Background(), p); err != nil {
			t.Fatalf("CreateParcelRequest failed: %v", err)
		}
	}

	r := chi.NewRouter()
	r.Get("/api/journeys/{journeyID}/matches", h.MatchesForJourney)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/journeys/%s/matches", journey.ID), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[MatchesForJourneyResponse](t, rec)
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1 (only the on-route parcel)", resp.Count)
	}
	if resp.Matches[0].Parcel.SenderID != "sender-1" {
		t.Errorf("matched parcel = %+v, want sender-1's", resp.Matches[0].Parcel)
	}
}
