// Package models holds the marketplace entities the engine reads: carrier
// journeys and sender parcel requests. The web product owns their lifecycle;
// this service only needs their shapes and basic validity rules.
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParcelStatus is a parcel request's lifecycle state. Transitions are driven
// by the marketplace (acceptance, delivery); the matcher only reads PENDING.
type ParcelStatus string

const (
	StatusPending   ParcelStatus = "PENDING"
	StatusAccepted  ParcelStatus = "ACCEPTED"
	StatusInTransit ParcelStatus = "IN_TRANSIT"
	StatusDelivered ParcelStatus = "DELIVERED"
	StatusCancelled ParcelStatus = "CANCELLED"
)

// Journey is one carrier's planned train trip: the ordered stations the
// train calls at, the travel date, and whether the journey is still active.
// Owned by a single carrier; mutated only by that carrier.
type Journey struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CarrierID       string    `db:"carrier_id" json:"carrierId"`
	PNR             string    `db:"pnr" json:"pnr,omitempty"`
	TrainNumber     string    `db:"train_number" json:"trainNumber"`
	TrainName       string    `db:"train_name" json:"trainName,omitempty"`
	SourceCode      string    `db:"source_code" json:"sourceCode"`
	SourceName      string    `db:"source_name" json:"sourceName,omitempty"`
	DestinationCode string    `db:"destination_code" json:"destinationCode"`
	DestinationName string    `db:"destination_name" json:"destinationName,omitempty"`

	// Stations are the intermediate stop codes between source and
	// destination, in travel order.
	Stations []string `db:"stations" json:"stations"`

	JourneyDate   time.Time `db:"journey_date" json:"journeyDate"`
	DepartureTime string    `db:"departure_time" json:"departureTime,omitempty"`
	ArrivalTime   string    `db:"arrival_time" json:"arrivalTime,omitempty"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// RouteCodes returns the journey's full ordered station-code list,
// source first, destination last, all uppercase.
func (j *Journey) RouteCodes() []string {
	codes := make([]string, 0, len(j.Stations)+2)
	codes = append(codes, strings.ToUpper(j.SourceCode))
	for _, s := range j.Stations {
		codes = append(codes, strings.ToUpper(s))
	}
	codes = append(codes, strings.ToUpper(j.DestinationCode))
	return codes
}

// Validate checks the fields a journey needs before it can be stored.
func (j *Journey) Validate() error {
	if j.CarrierID == "" {
		return errors.New("carrier_id is required")
	}
	if j.SourceCode == "" || j.DestinationCode == "" {
		return errors.New("source and destination station codes are required")
	}
	if strings.EqualFold(j.SourceCode, j.DestinationCode) {
		return errors.New("source and destination stations cannot be the same")
	}
	if j.JourneyDate.IsZero() {
		return errors.New("journey_date is required")
	}
	return nil
}

// ParcelRequest is a sender's ask: carry a parcel of a given weight from a
// pickup station to a drop station.
type ParcelRequest struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	SenderID      string       `db:"sender_id" json:"senderId"`
	CarrierID     string       `db:"carrier_id" json:"carrierId,omitempty"`
	PickupStation string       `db:"pickup_station" json:"pickupStation"`
	DropStation   string       `db:"drop_station" json:"dropStation"`
	WeightKg      float64      `db:"weight_kg" json:"weightKg"`
	PickupTime    time.Time    `db:"pickup_time" json:"pickupTime"`
	Status        ParcelStatus `db:"status" json:"status"`
	EstimatedFare float64      `db:"estimated_fare" json:"estimatedFare,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}

// Validate checks the fields a parcel request needs before it can be stored.
func (p *ParcelRequest) Validate() error {
	if p.SenderID == "" {
		return errors.New("sender_id is required")
	}
	if p.PickupStation == "" || p.DropStation == "" {
		return errors.New("pickup and drop stations are required")
	}
	if strings.EqualFold(p.PickupStation, p.DropStation) {
		return errors.New("pickup and drop stations cannot be the same")
	}
	if p.WeightKg <= 0 {
		return errors.New("weight must be greater than 0")
	}
	return nil
}
