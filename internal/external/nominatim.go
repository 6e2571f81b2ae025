package external

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ridecheck/internal/types"
)

const nominatimBase = "https://nominatim.openstreetmap.org"

// NominatimClientConfig configures a NominatimClient.
type NominatimClientConfig struct {
	BaseURL string
	Logger  *slog.Logger
}

// NominatimClient geocodes addresses with the OpenStreetMap Nominatim search
// API. Nominatim's usage policy requires an identifying User-Agent, which
// the BaseClient supplies.
type NominatimClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewNominatimClient creates a NominatimClient over base.
func NewNominatimClient(base *BaseClient, cfg NominatimClientConfig) *NominatimClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = nominatimBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NominatimClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the coordinates of the first search hit.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (float64, float64, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create geocoding request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return 0, 0, wrapUpstream(types.ErrCodeUpstreamGeocoding, "geocoding", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, 0, statusError(resp, "geocoding")
	}

	var places []nominatimPlace
	if err := decodeJSON(resp, &places); err != nil {
		return 0, 0, types.NewAppError(types.ErrCodeUpstreamBadPayload, "failed to decode geocoding response", err)
	}
	if len(places) == 0 {
		return 0, 0, types.NewAppErrorWithDetails(types.ErrCodeNotFoundLocation,
			"address could not be geocoded", nil, map[string]any{"address": address})
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil || !types.ValidCoordinates(lat, lon) {
		return 0, 0, types.NewAppError(types.ErrCodeUpstreamBadPayload,
			"geocoding returned invalid coordinates", nil)
	}

	c.logger.DebugContext(ctx, "geocoded address",
		"address", address,
		"display_name", places[0].DisplayName,
		"lat", lat,
		"lon", lon,
	)
	return lat, lon, nil
}
