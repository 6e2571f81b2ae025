package types

// Observation is a snapshot of current weather at one location, as reported by
// a weather provider. A nil *Observation means no reading was available.
type Observation struct {
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedMS  float64 `json:"wind_speed_ms" validate:"gte=0"`
	HumidityPct  int     `json:"humidity_pct" validate:"gte=0,lte=100"`
	Condition    string  `json:"condition"`
}

// PreferenceProfile holds the rider's comfort thresholds. It is loaded once
// from configuration and treated as read-only input to evaluation.
type PreferenceProfile struct {
	MinTemp            float64 `json:"min_temp" yaml:"min_temp" validate:"gte=-90,lte=60"`
	MaxTemp            float64 `json:"max_temp" yaml:"max_temp" validate:"gte=-90,lte=60,gtefield=MinTemp"`
	MaxWindSpeed       float64 `json:"max_wind_speed" yaml:"max_wind_speed" validate:"gte=0"`
	AllowPrecipitation bool    `json:"allow_precipitation" yaml:"allow_precipitation"`
}

// Verdict is the outcome of evaluating one observation against a profile.
// Reason explains the first violated constraint, or summarizes the
// conditions when none was violated.
type Verdict struct {
	Suitable bool   `json:"suitable"`
	Reason   string `json:"reason"`
}

// Place is a location identifier split into its city and zone parts.
type Place struct {
	Raw     string `json:"raw"`
	City    string `json:"city"`
	Zone    string `json:"zone,omitempty"`
	HasZone bool   `json:"has_zone"`

	// Malformed is set when no city-suffix marker was found and the whole
	// identifier was taken as the city.
	Malformed bool `json:"malformed,omitempty"`
}

// LocationRole names which end of the commute a section describes.
type LocationRole string

const (
	RoleHome LocationRole = "home"
	RoleWork LocationRole = "work"
)

// Section is the per-location header block of a Recommendation.
type Section struct {
	Role        LocationRole `json:"role"`
	Location    string       `json:"location"`
	Summary     string       `json:"summary"`
	Observation *Observation `json:"observation,omitempty"`

	// Verdict is nil when the location was not evaluated.
	Verdict *Verdict `json:"verdict,omitempty"`
}

// Guidance is the topology-specific advice block of a Recommendation.
type Guidance struct {
	Tone         GuidanceTone `json:"tone"`
	Headline     string       `json:"headline"`
	Advice       string       `json:"advice"`
	Caveats      []string     `json:"caveats,omitempty"`
	Alternatives []string     `json:"alternatives,omitempty"`

	// DestinationUnknown is set when the work location should have been
	// evaluated but no observation was available for it.
	DestinationUnknown bool `json:"destination_unknown,omitempty"`
}

// Recommendation is the composed commute advice for one invocation. It is
// never stored.
type Recommendation struct {
	Topology Topology `json:"topology"`
	Home     Section  `json:"home"`
	Work     *Section `json:"work,omitempty"`
	Guidance Guidance `json:"guidance"`
}

// RideAdvised reports whether the guidance recommends riding.
func (r Recommendation) RideAdvised() bool {
	return r.Guidance.Tone == ToneAffirmative
}

// CommuteRequest identifies the two ends of a commute and the profile to
// evaluate them against.
type CommuteRequest struct {
	HomeAddress string            `json:"home_address" validate:"required"`
	WorkAddress string            `json:"work_address" validate:"required"`
	Profile     PreferenceProfile `json:"profile"`
}
