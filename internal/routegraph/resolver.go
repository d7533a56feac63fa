package routegraph

import (
	"sort"
	"strings"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/station"
)

// Resolve looks up the known distance between two stations.
//
// Step 1 treats both inputs as station codes and does a canonical-key lookup,
// which is orientation-independent by construction. Step 2 falls back to
// treating the inputs as human-typed station names: both are normalized and
// compared against the normalized stored display names of every pair, in
// either orientation. No distance is invented by chaining pairs.
//
// ok=false means the distance is unknown, not zero; callers must branch.
func (g *Graph) Resolve(from, to string) (distanceKm float64, ok bool) {
	if pair, found := g.Pairs[NewPairKey(from, to)]; found {
		return pair.DistanceKm, true
	}

	fromNorm := station.Normalize(from)
	toNorm := station.Normalize(to)
	if fromNorm == "" || toNorm == "" {
		return 0, false
	}

	for _, pair := range g.Pairs {
		a := station.Normalize(pair.FromName)
		b := station.Normalize(pair.ToName)
		fromMatch := a == fromNorm || b == fromNorm
		toMatch := a == toNorm || b == toNorm
		if fromMatch && toMatch {
			return pair.DistanceKm, true
		}
	}

	return 0, false
}

// SearchStations returns stations whose code, display name or normalized
// name contains q (case-insensitive), sorted by code. All matches are
// collected before the limit applies, so the same query always returns the
// same stations regardless of map iteration order.
func (g *Graph) SearchStations(q string, limit int) []station.Station {
	q = station.Normalize(q)
	if q == "" {
		return nil
	}

	var out []station.Station
	for _, st := range g.Stations {
		if matchesQuery(st, q) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesQuery(st station.Station, normalizedQuery string) bool {
	if strings.EqualFold(st.Code, normalizedQuery) {
		return true
	}
	return strings.Contains(st.NormalizedName, normalizedQuery)
}
