// Package repository persists the distance graph and the marketplace
// entities. Two implementations exist: SQLite for single-node deployments
// and Postgres for the hosted database.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// ErrNotFound is returned when a requested entity does not exist or is not
// visible to the caller. Surfaced as 404 at the API boundary, never retried.
var ErrNotFound = errors.New("entity not found")

// ErrJourneyHasParcels is returned when deleting a journey whose carrier
// still has accepted or in-transit parcels.
var ErrJourneyHasParcels = errors.New("journey has accepted parcels and cannot be deleted")

// Store is the persistence contract the engine depends on. The engine only
// needs "all stations" and "all distance pairs" plus row-filter queries for
// journeys and parcels; it does not care about the underlying query language.
type Store interface {
	// Distance graph
	AllStations(ctx context.Context) ([]station.Station, error)
	AllDistancePairs(ctx context.Context) (map[routegraph.PairKey]*routegraph.DistancePair, error)
	// SaveGraph upserts one ingestion batch in a single transaction:
	// new pairs are inserted, existing pairs keep their recorded distance
	// and union their serving-train sets.
	SaveGraph(ctx context.Context, g *routegraph.Graph) error
	LoadGraph(ctx context.Context) (*routegraph.Graph, error)

	// Journeys
	CreateJourney(ctx context.Context, j *models.Journey) error
	GetJourney(ctx context.Context, id uuid.UUID) (*models.Journey, error)
	JourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error)
	ActiveJourneysByCarrier(ctx context.Context, carrierID string) ([]models.Journey, error)
	DeactivateJourney(ctx context.Context, id uuid.UUID, carrierID string) error
	DeleteJourney(ctx context.Context, id uuid.UUID, carrierID string) error

	// Parcel requests
	CreateParcelRequest(ctx context.Context, p *models.ParcelRequest) error
	GetParcelRequest(ctx context.Context, id uuid.UUID) (*models.ParcelRequest, error)
	ParcelRequestsBySender(ctx context.Context, senderID string) ([]models.ParcelRequest, error)
	PendingParcelRequests(ctx context.Context) ([]models.ParcelRequest, error)

	Ping(ctx context.Context) error
	Close() error
}
