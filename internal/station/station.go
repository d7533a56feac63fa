// Package station holds the station model and the name normalizer used for
// fuzzy matching of human-typed station names.
package station

import (
	"regexp"
	"strings"
)

// Station is one physical railway station. Name keeps the first-seen
// spelling for a code; NormalizedName is the canonical search/match form.
type Station struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
}

var whitespace = regexp.MustCompile(`\s+`)

// descriptor substrings that carry no identity: "GORAKHPUR JN." and
// "GORAKHPUR JUNCTION" are the same station, as are "MUMBAI CENTRAL" and
// "MUMBAI". Replacement order matters: "junction" before "jn".
var descriptors = []string{"junction", "jn", "central", "city", "terminus"}

// Normalize canonicalizes a station name for matching: lowercase, collapse
// internal whitespace, strip periods, remove descriptor substrings, trim.
// It is total and deterministic and never fails.
//
// Two distinct names can normalize to the same string (e.g. "KANPUR CENTRAL"
// and "KANPUR CITY"). The resolver's name-fallback path knowingly treats such
// names as the same station; that collision risk is accepted.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, ".", "")
	for _, d := range descriptors {
		s = strings.ReplaceAll(s, d, "")
	}
	return strings.TrimSpace(s)
}
