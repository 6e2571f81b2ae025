package types

import (
	"strings"
	"unicode/utf8"
)

// Validation constraint constants.
const (
	MinLat            = -90.0
	MaxLat            = 90.0
	MinLon            = -180.0
	MaxLon            = 180.0
	MaxLocationLength = 200
)

// ValidCoordinates reports whether lat/lon fall inside the WGS84 range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}

// ValidateLocation checks that a location identifier can be sent to a
// provider. It does not judge whether the identifier splits into city and
// zone; unsplittable identifiers are still valid input.
func ValidateLocation(field, location string) error {
	if strings.TrimSpace(location) == "" {
		return NewAppErrorWithDetails(
			ErrCodeValidationMissingField,
			field+" is required",
			nil,
			map[string]any{"field": field},
		)
	}
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidLocation,
			field+" is too long",
			nil,
			map[string]any{"field": field, "max_length": MaxLocationLength},
		)
	}
	return nil
}
