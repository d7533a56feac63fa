package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// PostgresStore implements Store on a Postgres database via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		code            TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		normalized_name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS distance_pairs (
		pair_key       TEXT PRIMARY KEY,
		from_code      TEXT NOT NULL,
		from_name      TEXT NOT NULL,
		to_code        TEXT NOT NULL,
		to_name        TEXT NOT NULL,
		distance_km    DOUBLE PRECISION NOT NULL CHECK (distance_km > 0),
		serving_trains JSONB NOT NULL,
		is_direct      BOOLEAN NOT NULL DEFAULT TRUE
	);
	CREATE TABLE IF NOT EXISTS journeys (
		id               UUID PRIMARY KEY,
		carrier_id       TEXT NOT NULL,
		pnr              TEXT NOT NULL DEFAULT '',
		train_number     TEXT NOT NULL DEFAULT '',
		train_name       TEXT NOT NULL DEFAULT '',
		source_code      TEXT NOT NULL,
		source_name      TEXT NOT NULL DEFAULT '',
		destination_code TEXT NOT NULL,
		destination_name TEXT NOT NULL DEFAULT '',
		stations         JSONB NOT NULL,
		journey_date     TIMESTAMPTZ NOT NULL,
		departure_time   TEXT NOT NULL DEFAULT '',
		arrival_time     TEXT NOT NULL DEFAULT '',
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_journeys_carrier ON journeys(carrier_id);
	CREATE TABLE IF NOT EXISTS parcel_requests (
		id             UUID PRIMARY KEY,
		sender_id      TEXT NOT NULL,
		carrier_id     TEXT NOT NULL DEFAULT '',
		pickup_station TEXT NOT NULL,
		drop_station   TEXT NOT NULL,
		weight_kg      DOUBLE PRECISION NOT NULL CHECK (weight_kg > 0),
		pickup_time    TIMESTAMPTZ,
		status         TEXT NOT NULL DEFAULT 'PENDING',
		estimated_fare DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_parcels_status ON parcel_requests(status);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// AllStations returns every known station.
func (s *PostgresStore) AllStations(ctx context.Context) ([]station.Station, error) {
	rows, err := s.pool.Query(ctx,
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
func (s *PostgresStore) AllDistancePairs(ctx context.Context) (map[routegraph.PairKey]*routegraph.DistancePair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct
		FROM distance_pairs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distance pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[routegraph.PairKey]*routegraph.DistancePair)
	for rows.Next() {
		var p routegraph.DistancePair
		var trainsJSON []byte
		if err := rows.Scan(&p.FromCode, &p.FromName, &p.ToCode, &p.ToName,
			&p.DistanceKm, &trainsJSON, &p.IsDirect); err != nil {
			return nil, fmt.Errorf("failed to scan distance pair row: %w", err)
		}
		if err := json.Unmarshal(trainsJSON, &p.Trains); err != nil {
			return nil, fmt.Errorf("failed to decode serving trains: %w", err)
		}
		pairs[routegraph.NewPairKey(p.FromCode, p.ToCode)] = &p
	}
	return pairs, rows.Err()
}

// LoadGraph reads the full persisted graph into memory.
func (s *PostgresStore) LoadGraph(ctx context.Context) (*routegraph.Graph, error) {
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
func (s *PostgresStore) SaveGraph(ctx context.Context, g *routegraph.Graph) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, st := range g.Stations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stations (code, name, normalized_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (code) DO NOTHING`,
			st.Code, st.Name, st.NormalizedName); err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", st.Code, err)
		}
	}

	for key, pair := range g.Pairs {
		var stored routegraph.DistancePair
		var trainsJSON []byte
		err := tx.QueryRow(ctx, `
			SELECT from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct
			FROM distance_pairs WHERE pair_key = $1`, key.String()).
			Scan(&stored.FromCode, &stored.FromName, &stored.ToCode, &stored.ToName,
				&stored.DistanceKm, &trainsJSON, &stored.IsDirect)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			trains, mErr := json.Marshal(pair.Trains)
			if mErr != nil {
				return fmt.Errorf("failed to encode serving trains: %w", mErr)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO distance_pairs
					(pair_key, from_code, from_name, to_code, to_name, distance_km, serving_trains, is_direct)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				key.String(), pair.FromCode, pair.FromName, pair.ToCode, pair.ToName,
				pair.DistanceKm, trains, pair.IsDirect); err != nil {
				return fmt.Errorf("failed to insert distance pair %s: %w", key, err)
			}
		case err != nil:
			return fmt.Errorf("failed to read distance pair %s: %w", key, err)
		default:
			if err := json.Unmarshal(trainsJSON, &stored.Trains); err != nil {
				return fmt.Errorf("failed to decode serving trains: %w", err)
			}
			merged := routegraph.MergePair(&stored, pair)
			trains, mErr := json.Marshal(merged.Trains)
			if mErr != nil {
				return fmt.Errorf("failed to encode serving trains: %w", mErr)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE distance_pairs SET serving_trains = $1 WHERE pair_key = $2`,
				trains, key.String()); err != nil {
				return fmt.Errorf("failed to update distance pair %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit graph batch: %w", err)
	}
	return nil
}

// CreateJourney stores a new journey, assigning an ID if absent.
func (s *PostgresStore) CreateJourney(ctx context.Context, j *models.Journey) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO journeys
			(id, carrier_id, pnr, train_number, train_name, source_code, source_name,
			 destination_code, destination_name, stations, journey_date,
			 departure_time, arrival_time, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		j.ID, j.CarrierID, j.PNR, j.TrainNumber, j.TrainName,
		j.SourceCode, j.SourceName, j.DestinationCode, j.DestinationName,
		stations, j.JourneyDate, j.DepartureTime, j.ArrivalTime, j.IsActive, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert journey: %w", err)
	}
	return nil
}

// GetJourney returns one journey by ID.
func (s *PostgresStore) GetJourney(ctx context.Context, id uuid.UUID) (*models.Journey, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE id = $1`, id)
	j, err := scanPgJourney(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	return j, err
}

// JourneysByCarrier returns all journeys owned by a carrier, newest first.
func (s *PostgresStore) JourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	return s.queryJourneys(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE carrier_id = $1 ORDER BY journey_date DESC`,
		carrierID)
}

// ActiveJourneysByCarrier returns only the carrier's active journeys.
func (s *PostgresStore) ActiveJourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error) {
	return s.queryJourneys(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE carrier_id = $1 AND is_active ORDER BY journey_date DESC`,
		carrierID)
}

func (s *PostgresStore) queryJourneys(ctx context.Context, query string, args ...any) ([]models.Journey, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journeys: %w", err)
	}
	defer rows.Close()

	var journeys []models.Journey
	for rows.Next() {
		j, err := scanPgJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, *j)
	}
	return journeys, rows.Err()
}

// DeactivateJourney marks a carrier's journey inactive.
func (s *PostgresStore) DeactivateJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE journeys SET is_active = FALSE WHERE id = $1 AND carrier_id = $2`,
		id, carrierID)
	if err != nil {
		return fmt.Errorf("failed to deactivate journey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteJourney removes a carrier's journey. Refused while the carrier has
// accepted or in-transit parcels.
func (s *PostgresStore) DeleteJourney(ctx context.Context, id uuid.UUID, carrierID string) error {
	var inFlight int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM parcel_requests
		WHERE carrier_id = $1 AND status IN ('ACCEPTED', 'IN_TRANSIT')`, carrierID).Scan(&inFlight)
	if err != nil {
		return fmt.Errorf("failed to count accepted parcels: %w", err)
	}
	if inFlight > 0 {
		return ErrJourneyHasParcels
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM journeys WHERE id = $1 AND carrier_id = $2`, id, carrierID)
	if err != nil {
		return fmt.Errorf("failed to delete journey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateParcelRequest stores a new parcel request, assigning ID and status.
func (s *PostgresStore) CreateParcelRequest(ctx context.Context, p *models.ParcelRequest) error {
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO parcel_requests
			(id, sender_id, carrier_id, pickup_station, drop_station, weight_kg,
			 pickup_time, status, estimated_fare, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.SenderID, p.CarrierID, p.PickupStation, p.DropStation,
		p.WeightKg, nullableTime(p.PickupTime), string(p.Status), p.EstimatedFare, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert parcel request: %w", err)
	}
	return nil
}

// GetParcelRequest returns one parcel request by ID.
func (s *PostgresStore) GetParcelRequest(ctx context.Context, id uuid.UUID) (*models.ParcelRequest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE id = $1`, id)
	p, err := scanPgParcel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("parcel request %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ParcelRequestsBySender returns a sender's parcel requests, newest first.
func (s *PostgresStore) ParcelRequestsBySender(ctx context.Context, senderID string) ([]models.ParcelRequest, error) {
	return s.queryParcels(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE sender_id = $1 ORDER BY created_at DESC`,
		senderID)
}

// PendingParcelRequests returns every parcel still awaiting a carrier.
func (s *PostgresStore) PendingParcelRequests(ctx context.Context) ([]models.ParcelRequest, error) {
	return s.queryParcels(ctx,
		`SELECT `+parcelColumns+` FROM parcel_requests WHERE status = 'PENDING' ORDER BY created_at DESC`)
}

func (s *PostgresStore) queryParcels(ctx context.Context, query string, args ...any) ([]models.ParcelRequest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcel requests: %w", err)
	}
	defer rows.Close()

	var parcels []models.ParcelRequest
	for rows.Next() {
		p, err := scanPgParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, *p)
	}
	return parcels, rows.Err()
}

func scanPgJourney(row pgx.Row) (*models.Journey, error) {
	var j models.Journey
	var stationsJSON []byte

	err := row.Scan(&j.ID, &j.CarrierID, &j.PNR, &j.TrainNumber, &j.TrainName,
		&j.SourceCode, &j.SourceName, &j.DestinationCode, &j.DestinationName,
		&stationsJSON, &j.JourneyDate, &j.DepartureTime, &j.ArrivalTime,
		&j.IsActive, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journey row: %w", err)
	}

	if err := json.Unmarshal(stationsJSON, &j.Stations); err != nil {
		return nil, fmt.Errorf("failed to decode journey stations: %w", err)
	}
	return &j, nil
}

func scanPgParcel(row pgx.Row) (*models.ParcelRequest, error) {
	var p models.ParcelRequest
	var pickupTime *time.Time
	var status string

	err := row.Scan(&p.ID, &p.SenderID, &p.CarrierID, &p.PickupStation, &p.DropStation,
		&p.WeightKg, &pickupTime, &status, &p.EstimatedFare, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan parcel row: %w", err)
	}

	if pickupTime != nil {
		p.PickupTime = *pickupTime
	}
	p.Status = models.ParcelStatus(status)
	return &p, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
