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

const (
	qweatherGeoBase = "https://geoapi.qweather.com"
	qweatherAPIBase = "https://devapi.qweather.com"

	// kmhPerMS converts QWeather's km/h wind speed to m/s.
	kmhPerMS = 3.6
)

// QWeatherClientConfig configures a QWeatherClient.
type QWeatherClientConfig struct {
	APIKey     string
	GeoBaseURL string
	APIBaseURL string
	Lang       string
	Logger     *slog.Logger
}

// QWeatherClient fetches current conditions from QWeather in two steps:
// resolve the location to a city id, then read weather/now for that id.
type QWeatherClient struct {
	base   *BaseClient
	apiKey string
	geoURL string
	apiURL string
	lang   string
	logger *slog.Logger
}

// NewQWeatherClient creates a QWeatherClient over base.
func NewQWeatherClient(base *BaseClient, cfg QWeatherClientConfig) *QWeatherClient {
	geo := cfg.GeoBaseURL
	if geo == "" {
		geo = qweatherGeoBase
	}
	api := cfg.APIBaseURL
	if api == "" {
		api = qweatherAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QWeatherClient{
		base:   base,
		apiKey: cfg.APIKey,
		geoURL: strings.TrimSuffix(geo, "/"),
		apiURL: strings.TrimSuffix(api, "/"),
		lang:   cfg.Lang,
		logger: logger,
	}
}

// Name implements WeatherProvider.
func (c *QWeatherClient) Name() types.WeatherProviderName {
	return types.ProviderQWeather
}

// QWeather encodes every numeric field as a string.
type qweatherLookupResponse struct {
	Code     string `json:"code"`
	Location []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Adm1 string `json:"adm1"`
		Adm2 string `json:"adm2"`
	} `json:"location"`
}

type qweatherNowResponse struct {
	Code string `json:"code"`
	Now  struct {
		ObsTime   string `json:"obsTime"`
		Temp      string `json:"temp"`
		Text      string `json:"text"`
		WindSpeed string `json:"windSpeed"`
		Humidity  string `json:"humidity"`
	} `json:"now"`
}

// Current implements WeatherProvider.
func (c *QWeatherClient) Current(ctx context.Context, location string) (*types.Observation, error) {
	cityID, err := c.lookupCity(ctx, location)
	if err != nil {
		return nil, err
	}

	q := c.query()
	q.Set("location", cityID)

	var now qweatherNowResponse
	if err := c.get(ctx, c.apiURL+"/v7/weather/now?"+q.Encode(), "weather", &now); err != nil {
		return nil, err
	}
	if err := qweatherCodeError(now.Code, "weather"); err != nil {
		return nil, err.WithDetails(map[string]any{"city_id": cityID})
	}

	obs, err := parseQWeatherNow(now)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "qweather observation",
		"location", location,
		"city_id", cityID,
		"obs_time", now.Now.ObsTime,
		"temperature_c", obs.TemperatureC,
		"condition", obs.Condition,
	)
	return obs, nil
}

func (c *QWeatherClient) lookupCity(ctx context.Context, location string) (string, error) {
	q := c.query()
	q.Set("location", location)

	var resp qweatherLookupResponse
	if err := c.get(ctx, c.geoURL+"/v2/city/lookup?"+q.Encode(), "city lookup", &resp); err != nil {
		return "", err
	}
	if err := qweatherCodeError(resp.Code, "city lookup"); err != nil {
		return "", err.WithDetails(map[string]any{"location": location})
	}
	if len(resp.Location) == 0 || resp.Location[0].ID == "" {
		return "", types.NewAppErrorWithDetails(types.ErrCodeNotFoundLocation,
			"no city matched the location", nil, map[string]any{"location": location})
	}
	return resp.Location[0].ID, nil
}

func (c *QWeatherClient) query() url.Values {
	q := url.Values{}
	q.Set("key", c.apiKey)
	if c.lang != "" {
		q.Set("lang", c.lang)
	}
	return q
}

func (c *QWeatherClient) get(ctx context.Context, rawURL, what string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create qweather request", err)
	}
	// QWeather always compresses; asking explicitly keeps the transport from
	// negotiating on our behalf so decodeJSON sees the raw stream.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.base.Do(req)
	if err != nil {
		return wrapUpstream(types.ErrCodeUpstreamWeather, "qweather "+what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp, "qweather "+what)
	}
	if err := decodeJSON(resp, v); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBadPayload,
			fmt.Sprintf("failed to decode qweather %s response", what), err)
	}
	return nil
}

// qweatherCodeError maps the status code carried in QWeather's JSON body.
func qweatherCodeError(code, what string) *types.AppError {
	switch code {
	case "200":
		return nil
	case "204", "404":
		return types.NewAppError(types.ErrCodeNotFoundLocation,
			fmt.Sprintf("qweather %s: no data for location (code %s)", what, code), nil)
	case "401", "403":
		return types.NewAppError(types.ErrCodeUpstreamAuthRejected,
			fmt.Sprintf("qweather %s: credentials rejected (code %s)", what, code), nil)
	case "402", "429":
		return types.NewAppError(types.ErrCodeUpstreamRateLimited,
			fmt.Sprintf("qweather %s: quota exceeded (code %s)", what, code), nil)
	default:
		return types.NewAppError(types.ErrCodeUpstreamWeather,
			fmt.Sprintf("qweather %s failed (code %q)", what, code), nil)
	}
}

func parseQWeatherNow(r qweatherNowResponse) (*types.Observation, error) {
	temp, err := strconv.ParseFloat(r.Now.Temp, 64)
	if err != nil {
		return nil, badField("temp", r.Now.Temp, err)
	}
	windKMH, err := strconv.ParseFloat(r.Now.WindSpeed, 64)
	if err != nil {
		return nil, badField("windSpeed", r.Now.WindSpeed, err)
	}
	humidity, err := strconv.Atoi(r.Now.Humidity)
	if err != nil {
		return nil, badField("humidity", r.Now.Humidity, err)
	}

	return &types.Observation{
		TemperatureC: temp,
		WindSpeedMS:  windKMH / kmhPerMS,
		HumidityPct:  humidity,
		Condition:    r.Now.Text,
	}, nil
}

func badField(field, value string, err error) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeUpstreamBadPayload,
		fmt.Sprintf("unparseable %s in weather payload", field), err,
		map[string]any{"field": field, "value": value})
}
