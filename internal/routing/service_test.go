package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dispatch_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testRoutingConfig struct {
	apiKey  string
	baseURL string
}

func (c testRoutingConfig) GetRoutingAPIKey() string         { return c.apiKey }
func (c testRoutingConfig) GetRoutingBaseURL() string        { return c.baseURL }
func (c testRoutingConfig) IsRoutingEnabled() bool           { return c.apiKey != "" }
func (c testRoutingConfig) GetGeocodeBaseURL() string        { return "http://127.0.0.1:1" }
func (c testRoutingConfig) GetGeocodeUserAgent() string      { return "test" }
func (c testRoutingConfig) GetGeocodeCountry() string        { return "nl" }
func (c testRoutingConfig) GetTravelCacheTTL() time.Duration { return time.Minute }

func TestTravelTimeRoundsUpToWholeMinutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","duration":{"value":61},"distance":{"value":1200}}]}]}`))
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 52.37, Lng: 4.89}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != 2 {
		t.Fatalf("expected 61s to round up to 2 minutes, got %d", est.Minutes)
	}
	if est.Meters != 1200 {
		t.Fatalf("expected 1200 meters, got %d", est.Meters)
	}
	if est.Status != StatusOK {
		t.Fatalf("expected status %q, got %q", StatusOK, est.Status)
	}
	if est.Source != SourceAPI {
		t.Fatalf("expected source %q, got %q", SourceAPI, est.Source)
	}
}

func TestTravelTimePrefersTrafficAwareDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","duration":{"value":600},"duration_in_traffic":{"value":900}}]}]}`))
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 52.37, Lng: 4.89}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != 15 {
		t.Fatalf("expected traffic-aware 15 minutes, got %d", est.Minutes)
	}
}

func TestTravelTimeFallsBackOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 52.37, Lng: 4.89}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != FallbackTravelMinutes {
		t.Fatalf("expected fallback %d minutes, got %d", FallbackTravelMinutes, est.Minutes)
	}
	if est.Meters != 0 {
		t.Fatalf("expected zero distance on fallback, got %d", est.Meters)
	}
	if est.Status != StatusError {
		t.Fatalf("expected status %q, got %q", StatusError, est.Status)
	}
	if est.Source != SourceFallback {
		t.Fatalf("expected source %q, got %q", SourceFallback, est.Source)
	}
}

func TestTravelTimeFallsBackOnElementNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`))
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 0, Lng: 0}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != FallbackTravelMinutes {
		t.Fatalf("expected fallback %d minutes, got %d", FallbackTravelMinutes, est.Minutes)
	}
	if est.Status != StatusNotFound {
		t.Fatalf("expected status %q, got %q", StatusNotFound, est.Status)
	}
}

func TestTravelTimeFallsBackOnZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","rows":[]}`))
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 52.37, Lng: 4.89}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != FallbackTravelMinutes {
		t.Fatalf("expected fallback %d minutes, got %d", FallbackTravelMinutes, est.Minutes)
	}
	if est.Status != StatusZeroResults {
		t.Fatalf("expected status %q, got %q", StatusZeroResults, est.Status)
	}
}

func TestTravelTimeDisabledUsesFallback(t *testing.T) {
	svc := NewService(testRoutingConfig{}, nil, logger.New("test"))

	est := svc.TravelTime(context.Background(), Location{Lat: 52.37, Lng: 4.89}, Location{Lat: 52.09, Lng: 5.12}, time.Now())
	if est.Minutes != FallbackTravelMinutes {
		t.Fatalf("expected fallback %d minutes, got %d", FallbackTravelMinutes, est.Minutes)
	}
	if est.Source != SourceFallback {
		t.Fatalf("expected source %q, got %q", SourceFallback, est.Source)
	}
}

func TestTravelTimeServesSecondLookupFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","duration":{"value":720}}]}]}`))
	}))
	defer srv.Close()

	svc := NewService(testRoutingConfig{apiKey: "key", baseURL: srv.URL}, redisClient, logger.New("test"))

	from := Location{Lat: 52.37, Lng: 4.89}
	to := Location{Lat: 52.09, Lng: 5.12}

	first := svc.TravelTime(context.Background(), from, to, time.Now())
	if first.Minutes != 12 || first.Source != SourceAPI {
		t.Fatalf("unexpected first estimate: %+v", first)
	}

	second := svc.TravelTime(context.Background(), from, to, time.Now())
	if second.Minutes != 12 {
		t.Fatalf("expected cached 12 minutes, got %d", second.Minutes)
	}
	if second.Source != SourceCache {
		t.Fatalf("expected source %q, got %q", SourceCache, second.Source)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestCeilMinutes(t *testing.T) {
	cases := []struct {
		seconds int64
		want    int
	}{
		{0, 0},
		{1, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{3600, 60},
	}
	for _, tc := range cases {
		if got := ceilMinutes(tc.seconds); got != tc.want {
			t.Fatalf("ceilMinutes(%d) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}
