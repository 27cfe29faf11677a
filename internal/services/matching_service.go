package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/observability"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/pkg/logger"
)

type MatchingService interface {
	// Match ranks the available candidates by ETA to origin and returns at most k.
	Match(ctx context.Context, origin models.Coordinate, candidates []*models.Driver, k int) ([]*models.DriverMatch, error)
	// FindDrivers loads available drivers near the session pickup and ranks them.
	FindDrivers(ctx context.Context, session *models.BookingSession, k int) ([]*models.DriverMatch, error)
}

type MatchingConfig struct {
	DefaultCandidates int
	CandidateLimit    int
	RadiusKM          float64
	Concurrency       int
	StoreTimeout      time.Duration
}

type matchingService struct {
	driverRepo interfaces.DriverRepository
	geo        GeoService
	logger     *logger.Logger
	config     MatchingConfig
}

func NewMatchingService(driverRepo interfaces.DriverRepository, geo GeoService, logger *logger.Logger, config MatchingConfig) MatchingService {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.DefaultCandidates <= 0 {
		config.DefaultCandidates = 5
	}
	config.StoreTimeout = storeTimeoutOrDefault(config.StoreTimeout)
	if config.RadiusKM <= 0 {
		config.RadiusKM = utils.DefaultSearchRadius
	}

	return &matchingService{
		driverRepo: driverRepo,
		geo:        geo,
		logger:     logger,
		config:     config,
	}
}

func (s *matchingService) Match(ctx context.Context, origin models.Coordinate, candidates []*models.Driver, k int) ([]*models.DriverMatch, error) {
	start := time.Now()
	defer func() {
		observability.MatchesTotal.Inc()
		observability.MatchLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateCoordinate(origin, "origin"); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.config.DefaultCandidates
	}

	available := make([]*models.Driver, 0, len(candidates))
	for _, d := range candidates {
		if d == nil || !d.IsAvailable {
			continue
		}
		if _, ok := d.Coordinate(); !ok {
			continue
		}
		available = append(available, d)
	}

	results := make([]*models.DriverMatch, len(available))
	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	for i, driver := range available {
		wg.Add(1)
		go func(i int, driver *models.Driver) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			position, _ := driver.Coordinate()
			estimate, err := s.geo.DistanceAndETA(ctx, position, origin)
			if err != nil {
				s.logger.WithError(err).WithField("driver_id", driver.ID).Debug("Excluding driver without ETA")
				return
			}

			results[i] = &models.DriverMatch{
				Driver:         driver,
				DistanceMeters: estimate.DistanceMeters,
				ETASeconds:     estimate.ETASeconds,
			}
		}(i, driver)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(utils.KindProviderUnavailable, "matching interrupted", err)
	}

	matches := make([]*models.DriverMatch, 0, len(results))
	for _, m := range results {
		if m != nil {
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.ETASeconds != b.ETASeconds {
			return a.ETASeconds < b.ETASeconds
		}
		if a.Driver.Rating != b.Driver.Rating {
			return a.Driver.Rating > b.Driver.Rating
		}
		if a.Driver.TotalRides != b.Driver.TotalRides {
			return a.Driver.TotalRides > b.Driver.TotalRides
		}
		return a.Driver.ID < b.Driver.ID
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

func (s *matchingService) FindDrivers(ctx context.Context, session *models.BookingSession, k int) ([]*models.DriverMatch, error) {
	if session == nil {
		return nil, utils.NewError(utils.KindValidation, "booking session is required")
	}
	if err := validateCoordinate(session.Pickup, "pickup"); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	drivers, err := s.driverRepo.GetAvailableDriversNear(storeCtx, session.Pickup, s.config.RadiusKM, s.config.CandidateLimit)
	cancel()
	if err != nil {
		return nil, err
	}

	matches, err := s.Match(ctx, session.Pickup, drivers, k)
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(session.RiderID).WithFields(map[string]interface{}{
		"candidates": len(drivers),
		"matches":    len(matches),
	}).Debug("Driver search completed")

	return matches, nil
}
