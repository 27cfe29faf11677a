package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mmcloughlin/geohash"

	"rideshare/internal/models"
	"rideshare/internal/observability"
	"rideshare/internal/utils"
	"rideshare/pkg/logger"
	"rideshare/pkg/maps"
)

type GeoService interface {
	// DistanceAndETA prefers the directions provider and falls back to a
	// straight-line estimate when it fails or times out.
	DistanceAndETA(ctx context.Context, from, to models.Coordinate) (*models.RouteEstimate, error)
}

type GeoConfig struct {
	AverageSpeedKMH float64
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
}

type geoService struct {
	provider maps.MapsProvider
	cache    CacheService
	logger   *logger.Logger
	config   GeoConfig
}

// NewGeoService builds the estimator. provider and cache may be nil.
func NewGeoService(provider maps.MapsProvider, cache CacheService, logger *logger.Logger, config GeoConfig) GeoService {
	if config.AverageSpeedKMH <= 0 {
		config.AverageSpeedKMH = utils.DefaultAverageSpeedKMH
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 3 * time.Second
	}

	return &geoService{
		provider: provider,
		cache:    cache,
		logger:   logger,
		config:   config,
	}
}

func (s *geoService) DistanceAndETA(ctx context.Context, from, to models.Coordinate) (*models.RouteEstimate, error) {
	if err := validateCoordinate(from, "from"); err != nil {
		return nil, err
	}
	if err := validateCoordinate(to, "to"); err != nil {
		return nil, err
	}

	if s.provider == nil {
		return s.fallback(from, to), nil
	}

	key := etaCacheKey(from, to)
	if s.cache != nil {
		var cached models.RouteEstimate
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			cached.Source = models.EstimateSourceCache
			observability.ETAEstimatesTotal.WithLabelValues(cached.Source).Inc()
			return &cached, nil
		}
	}

	estimate, err := s.fromProvider(ctx, from, to)
	if err != nil {
		s.logger.WithError(err).
			WithField("provider", s.provider.Name()).
			Warn("Directions provider failed, using straight-line estimate")
		return s.fallback(from, to), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, estimate, s.config.CacheTTL); err != nil {
			s.logger.WithError(err).Debug("Failed to cache route estimate")
		}
	}

	observability.ETAEstimatesTotal.WithLabelValues(estimate.Source).Inc()
	return estimate, nil
}

func (s *geoService) fromProvider(ctx context.Context, from, to models.Coordinate) (*models.RouteEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	resp, err := s.provider.GetDirections(ctx, &maps.DirectionsRequest{
		Origin:      maps.Location{Latitude: from.Latitude, Longitude: from.Longitude},
		Destination: maps.Location{Latitude: to.Latitude, Longitude: to.Longitude},
		Mode:        "driving",
	})
	if err != nil {
		return nil, err
	}

	route, err := resp.Best()
	if err != nil {
		return nil, err
	}
	if route.Distance.Value < 0 || route.Duration.Value < 0 {
		return nil, errors.New("provider returned a negative route")
	}

	return &models.RouteEstimate{
		DistanceMeters: route.Distance.Value,
		ETASeconds:     route.Duration.Value,
		Source:         models.EstimateSourceProvider,
	}, nil
}

func (s *geoService) fallback(from, to models.Coordinate) *models.RouteEstimate {
	distance := utils.CalculateDistanceMeters(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	observability.ETAEstimatesTotal.WithLabelValues(models.EstimateSourceHaversine).Inc()

	return &models.RouteEstimate{
		DistanceMeters: distance,
		ETASeconds:     utils.EstimateETASeconds(distance, s.config.AverageSpeedKMH),
		Source:         models.EstimateSourceHaversine,
	}
}

func validateCoordinate(c models.Coordinate, field string) error {
	if utils.IsValidCoordinates(c.Latitude, c.Longitude) {
		return nil
	}
	return utils.ErrInvalidCoordinate.
		With("field", field).
		With("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64)).
		With("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
}

func etaCacheKey(from, to models.Coordinate) string {
	return fmt.Sprintf(utils.CacheKeyETA,
		geohash.EncodeWithPrecision(from.Latitude, from.Longitude, utils.GeohashPrecision),
		geohash.EncodeWithPrecision(to.Latitude, to.Longitude, utils.GeohashPrecision),
	)
}
