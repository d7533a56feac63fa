// Package pricing maps (weight, distance) to a tiered delivery fee.
//
// Weights above the top tier's ceiling are never extrapolated: they produce
// a manual-quote outcome. Likewise an unknown station distance produces a
// manual quote instead of a guessed fee.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Tier is one weight bracket: (MinWeightKg, MaxWeightKg] carries a fixed
// base fee plus a per-kilometer rate.
type Tier struct {
	MinWeightKg float64 `yaml:"minWeightKg" validate:"gte=0"`
	MaxWeightKg float64 `yaml:"maxWeightKg" validate:"gtfield=MinWeightKg"`
	BaseFee     float64 `yaml:"baseFee" validate:"gte=0"`
	PerKmRate   float64 `yaml:"perKmRate" validate:"gte=0"`
	Label       string  `yaml:"label" validate:"required"`
}

// Config holds the fee schedule. MaxWeightKg is the hard ceiling above which
// pricing is refused and a manual quote required.
type Config struct {
	Tiers       []Tier  `yaml:"tiers" validate:"min=1,dive"`
	MaxWeightKg float64 `yaml:"maxWeightKg" validate:"gt=0"`
}

// DefaultConfig returns the production fee schedule.
func DefaultConfig() Config {
	return Config{
		Tiers: []Tier{
			{MinWeightKg: 0, MaxWeightKg: 2, BaseFee: 50, PerKmRate: 1, Label: "Under 2 kg"},
			{MinWeightKg: 2, MaxWeightKg: 5, BaseFee: 100, PerKmRate: 1, Label: "2-5 kg"},
			{MinWeightKg: 5, MaxWeightKg: 10, BaseFee: 150, PerKmRate: 1.5, Label: "5-10 kg"},
		},
		MaxWeightKg: 10,
	}
}

// Breakdown itemizes a computed fee for UI rendering.
type Breakdown struct {
	BaseFee     float64 `json:"baseFee"`
	DistanceFee float64 `json:"distanceFee"`
	DistanceKm  float64 `json:"distanceKm"`
	WeightTier  string  `json:"weightTier"`
}

// Quote is the outcome of a fee calculation. Exactly one of the two shapes
// applies: a priced fee with its breakdown, or a manual-quote flag with a
// human-readable reason. A manual quote is an expected outcome, not an error.
type Quote struct {
	Fee                 float64   `json:"fee"`
	Breakdown           Breakdown `json:"breakdown"`
	RequiresManualQuote bool      `json:"requiresManualQuote"`
	Reason              string    `json:"reason,omitempty"`
}

// DistanceSource answers distance lookups. ok=false means unknown.
type DistanceSource interface {
	Resolve(from, to string) (distanceKm float64, ok bool)
}

// Validation errors for caller input. These are distinct from manual-quote
// outcomes: they signal unusable input, not an unpriceable request.
var (
	ErrInvalidWeight = errors.New("weight must be greater than 0")
	ErrSameStation   = errors.New("pickup and drop stations cannot be the same")
	ErrEmptyStation  = errors.New("both pickup and drop stations are required")
)

// Calculator prices parcel requests against a fee schedule and a distance
// source. It is stateless and safe for concurrent use.
type Calculator struct {
	cfg       Config
	distances DistanceSource
}

// NewCalculator returns a calculator over the given schedule and distances.
func NewCalculator(cfg Config, distances DistanceSource) *Calculator {
	return &Calculator{cfg: cfg, distances: distances}
}

// TierFor returns the tier bracket containing weightKg, if any.
func (c *Calculator) TierFor(weightKg float64) (Tier, bool) {
	if weightKg > c.cfg.MaxWeightKg {
		return Tier{}, false
	}
	for _, t := range c.cfg.Tiers {
		if weightKg > t.MinWeightKg && weightKg <= t.MaxWeightKg {
			return t, true
		}
	}
	return Tier{}, false
}

// Quote prices a parcel between two stations. The station identifiers may be
// codes or human-typed names; resolution falls back accordingly.
func (c *Calculator) Quote(weightKg float64, from, to string) (Quote, error) {
	if weightKg <= 0 {
		return Quote{}, ErrInvalidWeight
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return Quote{}, ErrEmptyStation
	}
	if strings.EqualFold(from, to) {
		return Quote{}, ErrSameStation
	}

	if weightKg > c.cfg.MaxWeightKg {
		return Quote{
			RequiresManualQuote: true,
			Reason: fmt.Sprintf("weight %.1f kg exceeds the %.0f kg maximum; contact support for a manual quote",
				weightKg, c.cfg.MaxWeightKg),
		}, nil
	}

	tier, ok := c.TierFor(weightKg)
	if !ok {
		return Quote{
			RequiresManualQuote: true,
			Reason:              fmt.Sprintf("no fee tier covers weight %.1f kg", weightKg),
		}, nil
	}

	distanceKm, ok := c.distances.Resolve(from, to)
	if !ok {
		return Quote{
			RequiresManualQuote: true,
			Reason:              fmt.Sprintf("no known route distance between %q and %q", from, to),
		}, nil
	}

	distanceFee := math.Round(distanceKm * tier.PerKmRate)
	return Quote{
		Fee: tier.BaseFee + distanceFee,
		Breakdown: Breakdown{
			BaseFee:     tier.BaseFee,
			DistanceFee: distanceFee,
			DistanceKm:  distanceKm,
			WeightTier:  tier.Label,
		},
	}, nil
}

// FormatFee renders a fee for display.
func FormatFee(fee float64) string {
	return fmt.Sprintf("₹%.0f", fee)
}
