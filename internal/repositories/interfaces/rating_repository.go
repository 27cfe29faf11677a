package interfaces

import (
	"context"

	"rideshare/internal/models"
)

type RatingRepository interface {
	// CreateRating fails with a Duplicate error when the rider already rated the ride.
	CreateRating(ctx context.Context, rating *models.Rating) error
	GetRatingsByDriver(ctx context.Context, driverID string) ([]*models.Rating, error)
	GetRatingByRideAndRider(ctx context.Context, rideID, riderID string) (*models.Rating, error)
}
