package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ridecheck/internal/types"
)

const openWeatherBase = "https://api.openweathermap.org"

// OpenWeatherClientConfig configures an OpenWeatherClient.
type OpenWeatherClientConfig struct {
	APIKey  string
	BaseURL string
	Lang    string
	Logger  *slog.Logger
}

// OpenWeatherClient reads current conditions from the OpenWeather
// /data/2.5/weather endpoint. Addresses are geocoded first.
type OpenWeatherClient struct {
	base     *BaseClient
	geocoder Geocoder
	apiKey   string
	baseURL  string
	lang     string
	logger   *slog.Logger
}

// NewOpenWeatherClient creates an OpenWeatherClient over base, resolving
// addresses with geocoder.
func NewOpenWeatherClient(base *BaseClient, geocoder Geocoder, cfg OpenWeatherClientConfig) *OpenWeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openWeatherBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenWeatherClient{
		base:     base,
		geocoder: geocoder,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		lang:     cfg.Lang,
		logger:   logger,
	}
}

// Name implements WeatherProvider.
func (c *OpenWeatherClient) Name() types.WeatherProviderName {
	return types.ProviderOpenWeather
}

type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Current implements WeatherProvider.
func (c *OpenWeatherClient) Current(ctx context.Context, location string) (*types.Observation, error) {
	lat, lon, err := c.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	if c.lang != "" {
		q.Set("lang", c.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create openweather request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, wrapUpstream(types.ErrCodeUpstreamWeather, "openweather", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(resp, "openweather")
	}

	var body openWeatherResponse
	if err := decodeJSON(resp, &body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamBadPayload, "failed to decode openweather response", err)
	}
	if len(body.Weather) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamBadPayload,
			fmt.Sprintf("openweather returned no conditions for %s", location), nil)
	}

	obs := &types.Observation{
		TemperatureC: body.Main.Temp,
		WindSpeedMS:  body.Wind.Speed,
		HumidityPct:  body.Main.Humidity,
		Condition:    body.Weather[0].Description,
	}

	c.logger.DebugContext(ctx, "openweather observation",
		"location", location,
		"station", body.Name,
		"temperature_c", obs.TemperatureC,
		"condition", obs.Condition,
	)
	return obs, nil
}
