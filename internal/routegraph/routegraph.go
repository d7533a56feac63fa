// Package routegraph derives a station-to-station distance graph from parsed
// schedule stops and answers distance lookups against it.
//
// A distance is only ever a same-train measurement: the difference between
// two stops' cumulative distances on one train's route. No transitive
// shortest-path inference across trains is performed.
package routegraph

import (
	"sort"
	"strings"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/schedule"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// PairKey identifies an unordered station pair. A and B are uppercase codes
// with A <= B, so (X,Y) and (Y,X) map to the same key.
type PairKey struct {
	A, B string
}

// NewPairKey builds the canonical key for two station codes.
func NewPairKey(from, to string) PairKey {
	a := strings.ToUpper(strings.TrimSpace(from))
	b := strings.ToUpper(strings.TrimSpace(to))
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// String renders the key as "A-B", the form used as a store primary key.
func (k PairKey) String() string {
	return k.A + "-" + k.B
}

// DistancePair is a symmetric derived fact: two stations are a known number
// of kilometers apart, evidenced by one or more trains. From/To keep the
// orientation of the first sighting; lookups ignore orientation.
type DistancePair struct {
	FromCode   string   `json:"fromCode"`
	FromName   string   `json:"fromName"`
	ToCode     string   `json:"toCode"`
	ToName     string   `json:"toName"`
	DistanceKm float64  `json:"distanceKm"`
	Trains     []string `json:"trains"`
	IsDirect   bool     `json:"isDirect"`
}

// HasTrain reports whether trainID already evidences this pair.
func (p *DistancePair) HasTrain(trainID string) bool {
	for _, t := range p.Trains {
		if t == trainID {
			return true
		}
	}
	return false
}

// AddTrain records trainID as serving this pair. Idempotent.
func (p *DistancePair) AddTrain(trainID string) {
	if !p.HasTrain(trainID) {
		p.Trains = append(p.Trains, trainID)
	}
}

// Graph is the station set and distance-pair set for one or more ingestion
// batches, keyed for explicit merge-on-write.
type Graph struct {
	Stations map[string]station.Station
	Pairs    map[PairKey]*DistancePair
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Stations: make(map[string]station.Station),
		Pairs:    make(map[PairKey]*DistancePair),
	}
}

// Build derives the distance graph for one batch of schedule stops.
//
// Stops are grouped by train and stable-sorted by sequence (sequence should
// be unique per train, but malformed data may violate that; ties keep input
// order). Every in-order pair (i<j) on a route yields a candidate distance
// distanceFromOrigin[j]-distanceFromOrigin[i]; zero and negative values,
// caused by duplicate or out-of-order sequence numbers, are dropped silently.
func Build(stops []schedule.Stop) *Graph {
	g := New()

	byTrain := make(map[string][]schedule.Stop)
	var trainOrder []string
	for _, s := range stops {
		if _, ok := byTrain[s.TrainID]; !ok {
			trainOrder = append(trainOrder, s.TrainID)
		}
		byTrain[s.TrainID] = append(byTrain[s.TrainID], s)
	}

	for _, trainID := range trainOrder {
		route := byTrain[trainID]
		sort.SliceStable(route, func(i, j int) bool {
			return route[i].Sequence < route[j].Sequence
		})

		for _, s := range route {
			g.addStation(s.StationCode, s.StationName)
		}

		for i := 0; i < len(route); i++ {
			for j := i + 1; j < len(route); j++ {
				from, to := route[i], route[j]
				d := to.DistanceFromOrigin - from.DistanceFromOrigin
				if d <= 0 {
					continue
				}
				g.addPair(from, to, d, trainID)
			}
		}
	}

	return g
}

// addStation registers a station, keeping the first-seen display name.
func (g *Graph) addStation(code, name string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return
	}
	if _, ok := g.Stations[code]; ok {
		return
	}
	g.Stations[code] = station.Station{
		Code:           code,
		Name:           name,
		NormalizedName: station.Normalize(name),
	}
}

func (g *Graph) addPair(from, to schedule.Stop, distanceKm float64, trainID string) {
	key := NewPairKey(from.StationCode, to.StationCode)
	if existing, ok := g.Pairs[key]; ok {
		// First-seen distance wins. Later measurements for the same pair are
		// not reconciled, only their serving trains are accumulated.
		existing.AddTrain(trainID)
		return
	}
	g.Pairs[key] = &DistancePair{
		FromCode:   from.StationCode,
		FromName:   from.StationName,
		ToCode:     to.StationCode,
		ToName:     to.StationName,
		DistanceKm: distanceKm,
		Trains:     []string{trainID},
		IsDirect:   true,
	}
}

// Merge folds other into g: unseen stations and pairs are added, existing
// pairs keep their recorded distance and union their serving-train sets.
// Merging the same batch twice is a no-op beyond the first merge.
func (g *Graph) Merge(other *Graph) {
	for code, st := range other.Stations {
		if _, ok := g.Stations[code]; !ok {
			g.Stations[code] = st
		}
	}
	for key, pair := range other.Pairs {
		existing, ok := g.Pairs[key]
		if !ok {
			g.Pairs[key] = clonePair(pair)
			continue
		}
		for _, t := range pair.Trains {
			existing.AddTrain(t)
		}
	}
}

// MergePair combines a stored pair with an incoming measurement of the same
// pair: stored distance and orientation are kept, train sets are unioned.
func MergePair(stored, incoming *DistancePair) *DistancePair {
	merged := clonePair(stored)
	for _, t := range incoming.Trains {
		merged.AddTrain(t)
	}
	return merged
}

func clonePair(p *DistancePair) *DistancePair {
	c := *p
	c.Trains = append([]string(nil), p.Trains...)
	return &c
}
