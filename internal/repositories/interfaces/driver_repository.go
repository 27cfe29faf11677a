package interfaces

import (
	"context"
	"time"

	"rideshare/internal/models"
)

type DriverRepository interface {
	// Driver CRUD operations
	CreateDriver(ctx context.Context, driver *models.Driver) error
	GetDriverByID(ctx context.Context, id string) (*models.Driver, error)
	GetDriverByUserID(ctx context.Context, userID string) (*models.Driver, error)
	UpdateProfile(ctx context.Context, driver *models.Driver) error

	// Location and availability
	UpdateLocation(ctx context.Context, id string, location models.Location, at time.Time) error
	UpdateAvailability(ctx context.Context, id string, available bool) error
	GetAvailableDriversNear(ctx context.Context, center models.Coordinate, radiusKM float64, limit int) ([]*models.Driver, error)

	// Derived fields, written only by the rating refresh
	UpdateRatingSummary(ctx context.Context, id string, rating float64, totalRides int) error
}
