package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/logger"
)

type RatingService interface {
	SubmitRating(ctx context.Context, identity *models.Identity, rideID string, req *models.SubmitRatingRequest) (*models.Rating, error)
	GetDriverRatings(ctx context.Context, driverID string) (*models.DriverRatings, error)
}

type ratingService struct {
	ratingRepo   interfaces.RatingRepository
	rideRepo     interfaces.RideRepository
	driverRepo   interfaces.DriverRepository
	logger       *logger.Logger
	storeTimeout time.Duration
}

func NewRatingService(
	ratingRepo interfaces.RatingRepository,
	rideRepo interfaces.RideRepository,
	driverRepo interfaces.DriverRepository,
	logger *logger.Logger,
	storeTimeout time.Duration,
) RatingService {
	return &ratingService{
		ratingRepo:   ratingRepo,
		rideRepo:     rideRepo,
		driverRepo:   driverRepo,
		logger:       logger,
		storeTimeout: storeTimeoutOrDefault(storeTimeout),
	}
}

// Aggregate averages each score over ratings. Summation runs in (created_at, id)
// order so equal inputs give bit-identical results. Empty input yields zeros.
func Aggregate(ratings []*models.Rating) models.DriverRatingSummary {
	if len(ratings) == 0 {
		return models.DriverRatingSummary{}
	}

	sorted := make([]*models.Rating, len(ratings))
	copy(sorted, ratings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var overall, driving, behavior, punctuality, cleanliness float64
	for _, r := range sorted {
		overall += r.Overall
		driving += r.Driving
		behavior += r.Behavior
		punctuality += r.Punctuality
		cleanliness += r.Cleanliness
	}

	n := float64(len(sorted))
	return models.DriverRatingSummary{
		Average: overall / n,
		Categories: models.CategoryAverages{
			Driving:     driving / n,
			Behavior:    behavior / n,
			Punctuality: punctuality / n,
			Cleanliness: cleanliness / n,
		},
		Count: len(sorted),
	}
}

func (s *ratingService) SubmitRating(ctx context.Context, identity *models.Identity, rideID string, req *models.SubmitRatingRequest) (*models.Rating, error) {
	if err := validators.Validate(req); err != nil {
		return nil, err
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != models.RideStatusCompleted {
		return nil, utils.ErrInvalidRideState.
			With("ride_id", ride.ID).
			With("from", string(ride.Status)).
			With("event", "rate")
	}
	if !ride.IsPassenger(identity.UserID) {
		return nil, utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "not a passenger")
	}

	passengerName := identity.Name
	if passengerName == "" {
		passengerName = utils.DefaultPassengerName
	}

	rating := &models.Rating{
		ID:            primitive.NewObjectID().Hex(),
		RideID:        ride.ID,
		DriverID:      *ride.DriverID,
		RiderID:       identity.UserID,
		PassengerName: passengerName,
		Overall:       req.Overall,
		Driving:       req.Driving,
		Behavior:      req.Behavior,
		Punctuality:   req.Punctuality,
		Cleanliness:   req.Cleanliness,
		Comment:       req.Comment,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	// The unique (ride_id, rider_id) index still rejects a concurrent duplicate.
	_, err = s.ratingRepo.GetRatingByRideAndRider(storeCtx, ride.ID, identity.UserID)
	switch {
	case err == nil:
		return nil, utils.ErrDuplicate.
			With("ride_id", ride.ID).
			With("rider_id", identity.UserID)
	case !errors.Is(err, utils.ErrNotFound):
		return nil, err
	}

	if err := s.ratingRepo.CreateRating(storeCtx, rating); err != nil {
		return nil, err
	}

	s.logger.WithRideID(ride.ID).
		WithUserID(identity.UserID).
		WithField("driver_id", rating.DriverID).
		Info("Rating submitted")

	if _, err := s.refreshDriverSummary(ctx, rating.DriverID); err != nil {
		s.logger.WithError(err).WithField("driver_id", rating.DriverID).Warn("Failed to refresh driver rating")
	}

	return rating, nil
}

func (s *ratingService) GetDriverRatings(ctx context.Context, driverID string) (*models.DriverRatings, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	_, err := s.driverRepo.GetDriverByID(storeCtx, driverID)
	cancel()
	if err != nil {
		return nil, err
	}

	return s.refreshDriverSummary(ctx, driverID)
}

// refreshDriverSummary recomputes the aggregate and stores it on the driver.
func (s *ratingService) refreshDriverSummary(ctx context.Context, driverID string) (*models.DriverRatings, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ratings, err := s.ratingRepo.GetRatingsByDriver(storeCtx, driverID)
	if err != nil {
		return nil, err
	}

	summary := Aggregate(ratings)
	if err := s.driverRepo.UpdateRatingSummary(storeCtx, driverID, summary.Average, summary.Count); err != nil {
		return nil, err
	}

	return &models.DriverRatings{
		DriverID: driverID,
		Summary:  summary,
		Ratings:  ratings,
	}, nil
}

func (s *ratingService) getRide(ctx context.Context, rideID string) (*models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rideRepo.GetRideByID(ctx, rideID)
}
