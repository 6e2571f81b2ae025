// Package ride is the commute decision core: it classifies the home/work
// topology, evaluates weather observations against a rider's preference
// profile, and composes the resulting recommendation.
//
// Everything in this package is a pure function of its inputs. Fetching
// weather, loading configuration and presenting results belong to callers.
package ride

import (
	"strings"

	"ridecheck/internal/types"
)

// DefaultCityMarkers are the suffixes that end the city part of a location
// identifier, e.g. "Anshan City Tiedong District" or "鞍山市铁东区".
var DefaultCityMarkers = []string{"City", "市"}

// Classifier derives a commute topology from two location identifiers.
type Classifier struct {
	markers []string
}

// NewClassifier returns a Classifier splitting on the given markers. With no
// markers it uses DefaultCityMarkers.
func NewClassifier(markers ...string) *Classifier {
	if len(markers) == 0 {
		markers = DefaultCityMarkers
	}
	kept := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			kept = append(kept, m)
		}
	}
	return &Classifier{markers: kept}
}

var defaultClassifier = NewClassifier()

// Classify determines the topology using DefaultCityMarkers.
func Classify(home, work string) types.Topology {
	return defaultClassifier.Classify(home, work)
}

// SplitLocation splits raw using DefaultCityMarkers.
func SplitLocation(raw string) types.Place {
	return defaultClassifier.Split(raw)
}

// Split parses raw into city and zone at the earliest city marker. The city
// keeps its marker; whatever follows is the zone. Without any marker the whole
// identifier is the city and the place is flagged Malformed.
func (c *Classifier) Split(raw string) types.Place {
	idx, marker := -1, ""
	for _, m := range c.markers {
		i := strings.Index(raw, m)
		if i < 0 {
			continue
		}
		if idx < 0 || i < idx {
			idx, marker = i, m
		}
	}

	if idx < 0 {
		return types.Place{Raw: raw, City: strings.TrimSpace(raw), Malformed: true}
	}

	cut := idx + len(marker)
	p := types.Place{
		Raw:  raw,
		City: strings.TrimSpace(raw[:cut]),
		Zone: strings.TrimSpace(raw[cut:]),
	}
	p.HasZone = p.Zone != ""
	return p
}

// Classify compares the two parsed locations:
//   - different cities: cross-city
//   - same city, same zone present on both sides: co-located
//   - same city otherwise: same-city-cross-zone
func (c *Classifier) Classify(home, work string) types.Topology {
	return Topology(c.Split(home), c.Split(work))
}

// Topology classifies two already-parsed places.
func Topology(home, work types.Place) types.Topology {
	if home.City != work.City {
		return types.TopologyCrossCity
	}
	if home.HasZone && work.HasZone && home.Zone == work.Zone {
		return types.TopologyCoLocated
	}
	return types.TopologyCrossZone
}
