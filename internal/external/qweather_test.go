package external

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newQWeatherServer serves both the geo and weather endpoints, gzip-encoded
// as the real API does.
func newQWeatherServer(t *testing.T, lookup, now string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "qw-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("Accept-Encoding = %q, want gzip", r.Header.Get("Accept-Encoding"))
		}
		var body string
		switch r.URL.Path {
		case "/v2/city/lookup":
			body = lookup
		case "/v7/weather/now":
			if r.URL.Query().Get("location") != "101070301" {
				t.Errorf("weather queried for %q, want city id", r.URL.Query().Get("location"))
			}
			body = now
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "application/json")
		w.Write(gzipBytes(t, body))
	}))
}

func newTestQWeather(t *testing.T, serverURL, key string) *QWeatherClient {
	t.Helper()
	return NewQWeatherClient(newTestBase(t), QWeatherClientConfig{
		APIKey:     key,
		GeoBaseURL: serverURL,
		APIBaseURL: serverURL,
		Lang:       "zh",
	})
}

const (
	lookupOK = `{"code":"200","location":[{"id":"101070301","name":"铁东","adm1":"辽宁省","adm2":"鞍山"}]}`
	nowOK    = `{"code":"200","now":{"obsTime":"2024-04-01T08:00+08:00","temp":"12","text":"小雨","windSpeed":"18","humidity":"81"}}`
)

func TestQWeatherCurrent_Success(t *testing.T) {
	server := newQWeatherServer(t, lookupOK, nowOK)
	defer server.Close()

	obs, err := newTestQWeather(t, server.URL, "qw-key").Current(context.Background(), "鞍山市铁东区")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if obs.TemperatureC != 12 {
		t.Errorf("TemperatureC = %v, want 12", obs.TemperatureC)
	}
	if math.Abs(obs.WindSpeedMS-5.0) > 1e-9 {
		t.Errorf("WindSpeedMS = %v, want 5 (18 km/h)", obs.WindSpeedMS)
	}
	if obs.HumidityPct != 81 {
		t.Errorf("HumidityPct = %d, want 81", obs.HumidityPct)
	}
	if obs.Condition != "小雨" {
		t.Errorf("Condition = %q, want 小雨", obs.Condition)
	}
}

func TestQWeatherCurrent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		lookup string
		now    string
		want   string
	}{
		{"http auth", "wrong", lookupOK, nowOK, "upstream_auth_rejected"},
		{"body auth code", "qw-key", `{"code":"401"}`, nowOK, "upstream_auth_rejected"},
		{"quota", "qw-key", `{"code":"402"}`, nowOK, "upstream_rate_limited"},
		{"unknown city", "qw-key", `{"code":"404"}`, nowOK, "not_found_location"},
		{"empty lookup", "qw-key", `{"code":"200","location":[]}`, nowOK, "not_found_location"},
		{"weather failure", "qw-key", lookupOK, `{"code":"500"}`, "upstream_weather_unavailable"},
		{"bad number", "qw-key", lookupOK, `{"code":"200","now":{"temp":"warm","text":"晴","windSpeed":"3","humidity":"40"}}`, "upstream_bad_payload"},
		{"not json", "qw-key", lookupOK, `<html>`, "upstream_bad_payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newQWeatherServer(t, tt.lookup, tt.now)
			defer server.Close()

			obs, err := newTestQWeather(t, server.URL, tt.key).Current(context.Background(), "鞍山市铁东区")
			if obs != nil {
				t.Errorf("expected nil observation, got %+v", obs)
			}
			if code := appErrCode(t, err); string(code) != tt.want {
				t.Errorf("code = %s, want %s", code, tt.want)
			}
		})
	}
}
