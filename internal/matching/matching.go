// Package matching decides whether a carrier's journey can plausibly carry a
// parcel, producing a 0-100 confidence score and a human-readable reason list.
//
// The score weights and the acceptance threshold live in one Config so the
// matcher and the dashboard accept gate cannot drift apart.
package matching

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/models"
)

// Config carries the additive confidence weights and the acceptance
// threshold. The three weights sum to 100 in the default configuration.
type Config struct {
	// StationsPresentWeight is awarded when both the parcel's pickup and
	// drop stations are stops on the journey.
	StationsPresentWeight int `yaml:"stationsPresentWeight" validate:"gte=0,lte=100"`

	// DirectionWeight is awarded when pickup precedes drop in stop order.
	DirectionWeight int `yaml:"directionWeight" validate:"gte=0,lte=100"`

	// DateWeight is awarded when the parcel's pickup date plausibly fits
	// the journey date. Non-blocking: a date mismatch alone cannot veto an
	// otherwise compatible route.
	DateWeight int `yaml:"dateWeight" validate:"gte=0,lte=100"`

	// AcceptThreshold is the minimum confidence for a match. The dashboard
	// uses the same value as its accept gate.
	AcceptThreshold int `yaml:"acceptThreshold" validate:"gt=0,lte=100"`
}

// DefaultConfig returns the production weights.
func DefaultConfig() Config {
	// Weights sum to 100. Stations-present plus date alone (55) stays
	// under the threshold: a wrong-direction route can never match.
	return Config{
		StationsPresentWeight: 35,
		DirectionWeight:       45,
		DateWeight:            20,
		AcceptThreshold:       60,
	}
}

// Result is a match verdict. Ephemeral: recomputed on demand, never stored.
// Reasons is always populated, including positive reasons on a match, so the
// UI can explain the verdict either way.
type Result struct {
	IsMatch    bool     `json:"isMatch"`
	Confidence int      `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// PickupWindow is how far before the journey date a pickup may be scheduled
// and still count as date-compatible.
const PickupWindow = 24 * time.Hour

// Matcher scores journey/parcel compatibility. Stateless and safe for
// concurrent use.
type Matcher struct {
	cfg Config
}

// New returns a matcher with the given weights.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Threshold exposes the acceptance threshold for callers that gate on it.
func (m *Matcher) Threshold() int {
	return m.cfg.AcceptThreshold
}

// Match compares a carrier's journey against a parcel request.
func (m *Matcher) Match(journey *models.Journey, parcel *models.ParcelRequest) Result {
	if !journey.IsActive {
		return Result{
			Confidence: 0,
			Reasons:    []string{"journey is not active"},
		}
	}

	var confidence int
	var reasons []string

	route := journey.RouteCodes()
	pickupIdx := indexOfCode(route, parcel.PickupStation)
	dropIdx := indexOfCode(route, parcel.DropStation)

	switch {
	case pickupIdx >= 0 && dropIdx >= 0:
		confidence += m.cfg.StationsPresentWeight
		reasons = append(reasons, "pickup and drop stations are both stops on this route")

		if pickupIdx < dropIdx {
			confidence += m.cfg.DirectionWeight
			reasons = append(reasons, "pickup occurs before drop along the journey")
		} else {
			reasons = append(reasons, "drop station comes before pickup station on this journey")
		}
	case pickupIdx < 0 && dropIdx < 0:
		reasons = append(reasons,
			fmt.Sprintf("pickup station %q is not a stop on this route", parcel.PickupStation),
			fmt.Sprintf("drop station %q is not a stop on this route", parcel.DropStation))
	case pickupIdx < 0:
		reasons = append(reasons,
			fmt.Sprintf("pickup station %q is not a stop on this route", parcel.PickupStation))
	default:
		reasons = append(reasons,
			fmt.Sprintf("drop station %q is not a stop on this route", parcel.DropStation))
	}

	if dateCompatible(journey.JourneyDate, parcel.PickupTime) {
		confidence += m.cfg.DateWeight
		reasons = append(reasons, "pickup date fits the journey date")
	} else {
		reasons = append(reasons, fmt.Sprintf(
			"pickup date %s does not fit journey date %s",
			parcel.PickupTime.Format("2006-01-02"), journey.JourneyDate.Format("2006-01-02")))
	}

	return Result{
		IsMatch:    confidence >= m.cfg.AcceptThreshold,
		Confidence: confidence,
		Reasons:    reasons,
	}
}

// dateCompatible allows pickup on the journey date or up to one day before.
func dateCompatible(journeyDate, pickupTime time.Time) bool {
	if journeyDate.IsZero() || pickupTime.IsZero() {
		return false
	}
	earliest := journeyDate.Add(-PickupWindow)
	latest := journeyDate.Add(24 * time.Hour) // any time on the journey date
	return !pickupTime.Before(earliest) && pickupTime.Before(latest)
}

// indexOfCode finds a station identifier in the route's code list. The
// identifier is compared as a code (case-insensitive).
func indexOfCode(route []string, stationCode string) int {
	code := strings.ToUpper(strings.TrimSpace(stationCode))
	for i, c := range route {
		if c == code {
			return i
		}
	}
	return -1
}
