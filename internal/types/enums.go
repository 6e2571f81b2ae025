package types

import "fmt"

// Topology classifies how the home and work locations relate to each other.
type Topology string

const (
	// TopologyCoLocated: same city and same zone.
	TopologyCoLocated Topology = "co_located"
	// TopologyCrossZone: same city, different or unknown zones.
	TopologyCrossZone Topology = "same_city_cross_zone"
	// TopologyCrossCity: different cities.
	TopologyCrossCity Topology = "cross_city"
)

// Valid reports whether t is one of the defined topologies.
func (t Topology) Valid() bool {
	switch t {
	case TopologyCoLocated, TopologyCrossZone, TopologyCrossCity:
		return true
	}
	return false
}

// Label returns a short human-readable name for the topology.
func (t Topology) Label() string {
	switch t {
	case TopologyCoLocated:
		return "same-zone commute"
	case TopologyCrossZone:
		return "cross-district commute"
	case TopologyCrossCity:
		return "cross-city commute"
	default:
		return string(t)
	}
}

// ParseTopology converts a string into a Topology.
func ParseTopology(s string) (Topology, error) {
	t := Topology(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown topology %q", s)
	}
	return t, nil
}

// GuidanceTone is the overall stance of the guidance block.
type GuidanceTone string

const (
	ToneAffirmative         GuidanceTone = "affirmative"
	ToneConditionalNegative GuidanceTone = "conditional_negative"
	ToneStrongNegative      GuidanceTone = "strong_negative"
)

// PrecipitationMatch selects how condition labels are compared with the
// precipitation vocabulary.
type PrecipitationMatch string

const (
	MatchCaseInsensitive PrecipitationMatch = "insensitive"
	MatchCaseSensitive   PrecipitationMatch = "sensitive"
)

// WeatherProviderName identifies a configured weather backend.
type WeatherProviderName string

const (
	ProviderQWeather    WeatherProviderName = "qweather"
	ProviderOpenWeather WeatherProviderName = "openweather"
	ProviderStub        WeatherProviderName = "stub"
)
