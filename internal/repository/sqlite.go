package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on a local SQLite database.
//
// SQLite only supports one writer at a time, so all write operations go
// through a mutex on top of a single connection. This prevents "cannot start
// a transaction within a transaction" errors when a schedule import runs
// while the API is serving writes.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewSQLiteStore opens (and creates if needed) a SQLite database with WAL
// mode and foreign keys enabled, and ensures the schema exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AllStations returns every known station.
func (s *SQLiteStore) AllStations(ctx context.Context) ([]station.Station, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, normalized_name FROM stations ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []station.Station
	for rows.Next() {
		var st station.Station
		if err := rows.Scan(&st.Code, &st.Name, &st.NormalizedName); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// AllDistancePairs returns every known distance pair keyed canonically.
func (s *SQLiteStore) AllDistancePairs(ctx context.Context) (map[routegraph.PairKey]*routegraph.DistancePair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct
		FROM distance_pairs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distance pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[routegraph.PairKey]*routegraph.DistancePair)
	for rows.Next() {
		var p routegraph.DistancePair
		var trainsJSON string
		var isDirect int
		if err := rows.Scan(&p.FromCode, &p.FromName, &p.ToCode, &p.ToName,
			&p.DistanceKm, &trainsJSON, &isDirect); err != nil {
			return nil, fmt.Errorf("failed to scan distance pair row: %w", err)
		}
		if err := json.Unmarshal([]byte(trainsJSON), &p.Trains); err != nil {
			return nil, fmt.Errorf("failed to decode serving trains: %w", err)
		}
		p.IsDirect = isDirect != 0
		pairs[routegraph.NewPairKey(p.FromCode, p.ToCode)] = &p
	}
	return pairs, rows.Err()
}

// LoadGraph reads the full persisted graph into memory.
func (s *SQLiteStore) LoadGraph(ctx context.Context) (*routegraph.Graph, error) {
	g := routegraph.New()

	stations, err := s.AllStations(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range stations {
		g.Stations[st.Code] = st
	}

	pairs, err := s.AllDistancePairs(ctx)
	if err != nil {
		return nil, err
	}
	g.Pairs = pairs

	return g, nil
}

// SaveGraph upserts one ingestion batch in a single transaction. Existing
// pairs keep their recorded distance; serving-train sets are unioned.
// Station display names are first-seen: later spellings do not overwrite.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *routegraph.Graph) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range g.Stations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO stations (code, name, normalized_name) VALUES (?, ?, ?)`,
			st.Code, st.Name, st.NormalizedName); err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", st.Code, err)
		}
	}

	for key, pair := range g.Pairs {
		row := tx.QueryRowContext(ctx, `
			SELECT from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct
			FROM distance_pairs WHERE pair_key = ?`, key.String())

		var stored routegraph.DistancePair
		var trainsJSON string
		var isDirect int
		err := row.Scan(&stored.FromCode, &stored.FromName, &stored.ToCode, &stored.ToName,
			&stored.DistanceKm, &trainsJSON, &isDirect)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			trains, mErr := json.Marshal(pair.Trains)
			if mErr != nil {
				return fmt.Errorf("failed to encode serving trains: %w", mErr)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO distance_pairs
					(pair_key, from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				key.String(), pair.FromCode, pair.FromName, pair.ToCode, pair.ToName,
				pair.DistanceKm, string(trains), boolToInt(pair.IsDirect)); err != nil {
				return fmt.Errorf("failed to insert distance pair %s: %w", key, err)
			}
		case err != nil:
			return fmt.Errorf("failed to read distance pair %s: %w", key, err)
		default:
			if err := json.Unmarshal([]byte(trainsJSON), &stored.Trains); err != nil {
				return fmt.Errorf("failed to decode serving trains: %w", err)
			}
			merged := routegraph.MergePair(&stored, pair)
			trains, mErr := json.Marshal(merged.Trains)
			if mErr != nil {
				return fmt.Errorf("failed to encode serving trains: %w", mErr)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE distance_pairs SET serving_trains = ? WHERE pair_key = ?`,
				string(trains), key.String()); err != nil {
				return fmt.Errorf("failed to update distance pair %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph batch: %w", err)
	}
	return nil
}

// CreateJourney stores a new journey, assigning an ID if absent.
func (s *SQLiteStore) CreateJourney(ctx context.Context, j *models.Journey) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	stations, err := json.Marshal(j.Stations)
	if err != nil {
		return fmt.Errorf("failed to encode journey stations: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journeys
			(id, carrier_id, pnr, train_number, train_name, source_code, source_name,
			 destination_code, destination_name, stations, journey_date,
			 departure_time, arrival_time, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.CarrierID, j.PNR, j.TrainNumber, j.TrainName,
		j.SourceCode, j.SourceName, j.DestinationCode, j.DestinationName,
		string(stations), j.JourneyDate.UTC().Format(time.RFC3339),
		j.DepartureTime, j.ArrivalTime, boolToInt(j.IsActive),
		j.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert journey: %w", err)
	}
	return nil
}

const journeyColumns = `
	id, carrier_id, pnr, train_number, train_name, source_code, source_name,
	destination_code, destination_name, stations, journey_date,
	departure_time, arrival_time, is_active, created_at`

// GetJourney returns one journey by ID.
func (s *SQLiteStore) GetJourney(ctx context.Context, id uuid.UUID) (*models.Journey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE id = ?`, id.String())
	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	return j, err
}

// JourneysByCarrier returns all journeys owned by a carrier, newest first.
func (s *SQLiteStore) JourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	return s.queryJourneys(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE carrier_id = ? ORDER BY journey_date DESC`,
		carrierID)
}

// ActiveJourneysByCarrier returns only the carrier's active journeys.
func (s *SQLiteStore) ActiveJourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	return s.queryJourneys(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE carrier_id = ? AND is_active = 1 ORDER BY journey_date DESC`,
		carrierID)
}

func (s *SQLiteStore) queryJourneys(ctx context.Context, query string, args ...any) ([]models.Journey, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journeys: %w", err)
	}
	defer rows.Close()

	var journeys []models.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, *j)
	}
	return journeys, rows.Err()
}

// DeactivateJourney marks a carrier's journey inactive.
func (s *SQLiteStore) DeactivateJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET is_active = 0 WHERE id = ? AND carrier_id = ?`,
		id.String(), carrierID)
	if err != nil {
		return fmt.Errorf("failed to deactivate journey: %w", err)
	}
	return requireRow(res, id)
}

// DeleteJourney removes a carrier's journey. Refused while the carrier has
// accepted or in-transit parcels, so an in-flight delivery keeps its journey.
func (s *SQLiteStore) DeleteJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var inFlight int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM parcel_requests
		WHERE carrier_id = ? AND status IN ('ACCEPTED', 'IN_TRANSIT')`, carrierID).Scan(&inFlight)
	if err != nil {
		return fmt.Errorf("failed to count accepted parcels: %w", err)
	}
	if inFlight > 0 {
		return ErrJourneyHasParcels
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM journeys WHERE id = ? AND carrier_id = ?`, id.String(), carrierID)
	if err != nil {
		return fmt.Errorf("failed to delete journey: %w", err)
	}
	return requireRow(res, id)
}

// CreateParcelRequest stores a new parcel request, assigning ID and status.
func (s *SQLiteStore) CreateParcelRequest(ctx context.Context, p *models.ParcelRequest) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parcel_requests
			(id, sender_id, carrier_id, pickup_station, drop_station, weight_kg,
			 pickup_time, status, estimated_fare, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.SenderID, p.CarrierID, p.PickupStation, p.DropStation,
		p.WeightKg, timeToString(p.PickupTime), string(p.Status), p.EstimatedFare,
		p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert parcel request: %w", err)
	}
	return nil
}

const parcelColumns = `
	id, sender_id, carrier_id, pickup_station, drop_station, weight_kg,
	pickup_time, status, estimated_fare, created_at`

// GetParcelRequest returns one parcel request by ID.
func (s *SQLiteStore) GetParcelRequest(ctx context.Context, id uuid.UUID) (*models.ParcelRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE id = ?`, id.String())
	p, err := scanParcel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parcel request %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ParcelRequestsBySender returns a sender's parcel requests, newest first.
func (s *SQLiteStore) ParcelRequestsBySender(ctx context.Context, senderID string) ([]models.ParcelRequest, error) {
	return s.queryParcels(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE sender_id = ? ORDER BY created_at DESC`,
		senderID)
}

// PendingParcelRequests returns every parcel still awaiting a carrier.
func (s *SQLiteStore) PendingParcelRequests(ctx context.Context) ([]models.ParcelRequest, error) {
	return s.queryParcels(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE status = 'PENDING' ORDER BY created_at DESC`)
}

func (s *SQLiteStore) queryParcels(ctx context.Context, query string, args ...any) ([]models.ParcelRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcel requests: %w", err)
	}
	defer rows.Close()

	var parcels []models.ParcelRequest
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, *p)
	}
	return parcels, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJourney(row scanner) (*models.Journey, error) {
	var j models.Journey
	var id, journeyDate, createdAt, stationsJSON string
	var isActive int

	err := row.Scan(&id, &j.CarrierID, &j.PNR, &j.TrainNumber, &j.TrainName,
		&j.SourceCode, &j.SourceName, &j.DestinationCode, &j.DestinationName,
		&stationsJSON, &journeyDate, &j.DepartureTime, &j.ArrivalTime,
		&isActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journey row: %w", err)
	}

	j.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid journey id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(stationsJSON), &j.Stations); err != nil {
		return nil, fmt.Errorf("failed to decode journey stations: %w", err)
	}
	j.JourneyDate = parseStoredTime(journeyDate)
	j.CreatedAt = parseStoredTime(createdAt)
	j.IsActive = isActive != 0
	return &j, nil
}

func scanParcel(row scanner) (*models.ParcelRequest, error) {
	var p models.ParcelRequest
	var id, pickupTime, status, createdAt string

	err := row.Scan(&id, &p.SenderID, &p.CarrierID, &p.PickupStation, &p.DropStation,
		&p.WeightKg, &pickupTime, &status, &p.EstimatedFare, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan parcel row: %w", err)
	}

	p.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid parcel id %q: %w", id, err)
	}
	p.PickupTime = parseStoredTime(pickupTime)
	p.CreatedAt = parseStoredTime(createdAt)
	p.Status = models.ParcelStatus(status)
	return &p, nil
}

// parseStoredTime converts an RFC3339 string from SQLite to time.Time.
// Returns the zero time for empty or unparseable values.
func parseStoredTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	return nil
}
