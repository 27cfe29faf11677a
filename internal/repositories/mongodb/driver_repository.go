package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/services"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/database"
)

type driverRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
	cacheTTL   time.Duration
}

// cachedDriver keeps the device token, which the API representation hides.
type cachedDriver struct {
	*models.Driver
	DeviceToken string `json:"device_token,omitempty"`
}

func NewDriverRepository(db *mongo.Database, cache services.CacheService, cacheTTL time.Duration) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection(database.CollectionDrivers),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *driverRepository) CreateDriver(ctx context.Context, driver *models.Driver) error {
	if driver.CreatedAt.IsZero() {
		driver.CreatedAt = now()
	}
	driver.UpdatedAt = driver.CreatedAt

	if err := validators.Validate(driver); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, driver); err != nil {
		return translateError(err, "create driver", "driver", driver.ID)
	}

	r.cacheDriver(ctx, driver)
	return nil
}

func (r *driverRepository) GetDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	if driver := r.getDriverFromCache(ctx, id); driver != nil {
		return driver, nil
	}

	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if err != nil {
		return nil, translateError(err, "get driver", "driver", id)
	}

	r.cacheDriver(ctx, &driver)
	return &driver, nil
}

func (r *driverRepository) GetDriverByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&driver)
	if err != nil {
		return nil, translateError(err, "get driver by user", "driver", userID)
	}

	return &driver, nil
}

func (r *driverRepository) UpdateProfile(ctx context.Context, driver *models.Driver) error {
	if err := validators.Validate(driver); err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"display_name":  driver.DisplayName,
			"car_type":      driver.CarType,
			"car_seats":     driver.CarSeats,
			"car_image_url": driver.CarImageURL,
			"device_token":  driver.DeviceToken,
			"updated_at":    now(),
		},
	}

	return r.update(ctx, driver.ID, update, "update driver profile")
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id string, location models.Location, at time.Time) error {
	if !utils.IsValidCoordinates(location.Latitude(), location.Longitude()) {
		return utils.ErrInvalidCoordinate.With("driver_id", id)
	}

	update := bson.M{
		"$set": bson.M{
			"current_location":     location,
			"last_location_update": at.UTC(),
			"updated_at":           now(),
		},
	}

	return r.update(ctx, id, update, "update driver location")
}

func (r *driverRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	update := bson.M{
		"$set": bson.M{
			"is_available": available,
			"updated_at":   now(),
		},
	}

	return r.update(ctx, id, update, "update driver availability")
}

func (r *driverRepository) GetAvailableDriversNear(ctx context.Context, center models.Coordinate, radiusKM float64, limit int) ([]*models.Driver, error) {
	// $maxDistance is in meters for GeoJSON points
	radiusMeters := radiusKM * 1000

	filter := bson.M{
		"current_location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{center.Longitude, center.Latitude},
				},
				"$maxDistance": radiusMeters,
			},
		},
		"is_available": true,
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(err, "find nearby drivers", "driver", "")
	}
	defer cursor.Close(ctx)

	drivers := make([]*models.Driver, 0)
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, translateError(err, "decode drivers", "driver", "")
	}

	return drivers, nil
}

func (r *driverRepository) UpdateRatingSummary(ctx context.Context, id string, rating float64, totalRides int) error {
	update := bson.M{
		"$set": bson.M{
			"rating":      rating,
			"total_rides": totalRides,
			"updated_at":  now(),
		},
	}

	return r.update(ctx, id, update, "update driver rating")
}

func (r *driverRepository) update(ctx context.Context, id string, update bson.M, op string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateError(err, op, "driver", id)
	}

	if result.MatchedCount == 0 {
		return utils.NewError(utils.KindNotFound, "driver not found").With("driver_id", id)
	}

	r.invalidateDriverCache(ctx, id)
	return nil
}

// Cache helpers
func (r *driverRepository) cacheDriver(ctx context.Context, driver *models.Driver) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf(utils.CacheKeyDriver, driver.ID)
		r.cache.Set(ctx, cacheKey, cachedDriver{Driver: driver, DeviceToken: driver.DeviceToken}, r.cacheTTL)
	}
}

func (r *driverRepository) getDriverFromCache(ctx context.Context, driverID string) *models.Driver {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf(utils.CacheKeyDriver, driverID)
	cached := cachedDriver{Driver: &models.Driver{}}
	if err := r.cache.Get(ctx, cacheKey, &cached); err != nil {
		return nil
	}

	cached.Driver.DeviceToken = cached.DeviceToken
	return cached.Driver
}

func (r *driverRepository) invalidateDriverCache(ctx context.Context, driverID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf(utils.CacheKeyDriver, driverID))
	}
}
