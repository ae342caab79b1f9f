package routing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Service resolves travel times between job sites and geocodes addresses.
type Service struct {
	matrix  *matrixClient
	geo     *geocoder
	cache   *estimateCache
	enabled bool
	log     *logger.Logger
}

// NewService creates the routing service. When routing is disabled in
// config, every travel lookup resolves to the fallback estimate. The
// redis client may be nil, which disables caching.
func NewService(cfg config.RoutingConfig, redisClient *redis.Client, log *logger.Logger) *Service {
	return &Service{
		matrix:  newMatrixClient(cfg.GetRoutingBaseURL(), cfg.GetRoutingAPIKey(), log),
		geo:     newGeocoder(cfg.GetGeocodeBaseURL(), cfg.GetGeocodeUserAgent(), cfg.GetGeocodeCountry(), log),
		cache:   newEstimateCache(redisClient, cfg.GetTravelCacheTTL()),
		enabled: cfg.IsRoutingEnabled(),
		log:     log,
	}
}

// TravelTime returns the drive time between two locations in whole
// minutes, rounded up. Any upstream failure degrades to the conservative
// fallback instead of surfacing an error, so scheduling never blocks on
// the matrix API.
func (s *Service) TravelTime(ctx context.Context, from, to Location, departure time.Time) TravelEstimate {
	if !s.enabled {
		return fallbackEstimate(StatusError, "routing not configured")
	}

	if minutes, meters, ok := s.cache.Get(ctx, from, to); ok {
		return TravelEstimate{Minutes: minutes, Meters: meters, Status: StatusOK, Source: SourceCache}
	}

	result, err := s.matrix.Drive(ctx, from, to, departure)
	if err != nil {
		s.log.UpstreamDegraded("distance-matrix", err.Error())
		status := StatusError
		var merr *matrixError
		if errors.As(err, &merr) {
			status = merr.status
		}
		return fallbackEstimate(status, err.Error())
	}

	minutes := ceilMinutes(result.seconds)
	s.cache.Set(ctx, from, to, minutes, result.meters)

	return TravelEstimate{Minutes: minutes, Meters: result.meters, Status: StatusOK, Source: SourceAPI}
}

// SearchAddress geocodes a free-form address query.
func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	return s.geo.SearchAddress(ctx, query)
}

// Geocode resolves a free-text address to coordinates. It returns nil
// when the geocoder is unconfigured or finds no match, so callers can
// treat an unresolvable address as "no coordinates" rather than an
// error.
func (s *Service) Geocode(ctx context.Context, address string) (*Location, error) {
	if s.geo.baseURL == "" || address == "" {
		return nil, nil
	}

	suggestions, err := s.geo.SearchAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(suggestions[0].Lat, 64)
	if err != nil {
		return nil, nil
	}
	lng, err := strconv.ParseFloat(suggestions[0].Lon, 64)
	if err != nil {
		return nil, nil
	}
	return &Location{Lat: lat, Lng: lng}, nil
}

// ceilMinutes converts seconds to minutes, rounding partial minutes up.
func ceilMinutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int((seconds + 59) / 60)
}
