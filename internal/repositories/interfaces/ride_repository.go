package interfaces

import (
	"context"

	"rideshare/internal/models"
)

type RideRepository interface {
	// Ride CRUD operations
	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRideByID(ctx context.Context, id string) (*models.Ride, error)

	// CompareAndSwap replaces the stored ride only if its version still equals
	// expectedVersion. On success ride.Version is expectedVersion+1; a lost race
	// returns a Conflict error and leaves the stored ride untouched.
	CompareAndSwap(ctx context.Context, ride *models.Ride, expectedVersion int64) error

	// Recurring rides
	// CreateOccurrence inserts a materialized occurrence; created is false when it already existed.
	CreateOccurrence(ctx context.Context, ride *models.Ride) (created bool, err error)
	GetOccurrences(ctx context.Context, templateID string) ([]*models.Ride, error)

	// Listing
	GetRidesByDriver(ctx context.Context, driverID string, statuses []models.RideStatus) ([]*models.Ride, error)
	GetRidesByRider(ctx context.Context, riderID string, skip, limit int) ([]*models.Ride, error)
}
