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
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/database"
)

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(database.CollectionRides),
	}
}

func (r *rideRepository) CreateRide(ctx context.Context, ride *models.Ride) error {
	if err := validators.ValidateRide(ride); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, ride); err != nil {
		return translateError(err, "create ride", "ride", ride.ID)
	}

	return nil
}

func (r *rideRepository) GetRideByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		return nil, translateError(err, "get ride", "ride", id)
	}

	return &ride, nil
}

func (r *rideRepository) CompareAndSwap(ctx context.Context, ride *models.Ride, expectedVersion int64) error {
	ride.Version = expectedVersion + 1
	if err := validators.ValidateRide(ride); err != nil {
		ride.Version = expectedVersion
		return err
	}

	filter := bson.M{"_id": ride.ID, "version": expectedVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, ride)
	if err != nil {
		ride.Version = expectedVersion
		return translateError(err, "update ride", "ride", ride.ID)
	}

	if result.MatchedCount == 1 {
		return nil
	}

	ride.Version = expectedVersion
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": ride.ID})
	if err != nil {
		return translateError(err, "check ride", "ride", ride.ID)
	}
	if count == 0 {
		return utils.NewError(utils.KindNotFound, "ride not found").With("ride_id", ride.ID)
	}

	return utils.NewError(utils.KindConflict, "ride was modified concurrently").
		With("ride_id", ride.ID).
		With("expected_version", fmt.Sprintf("%d", expectedVersion))
}

func (r *rideRepository) CreateOccurrence(ctx context.Context, ride *models.Ride) (bool, error) {
	if err := validators.ValidateRide(ride); err != nil {
		return false, err
	}

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, translateError(err, "create occurrence", "ride", ride.ID)
	}

	return true, nil
}

func (r *rideRepository) GetOccurrences(ctx context.Context, templateID string) ([]*models.Ride, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	return r.find(ctx, bson.M{"template_id": templateID}, opts)
}

func (r *rideRepository) GetRidesByDriver(ctx context.Context, driverID string, statuses []models.RideStatus) ([]*models.Ride, error) {
	filter := bson.M{"driver_id": driverID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *rideRepository) GetRidesByRider(ctx context.Context, riderID string, skip, limit int) ([]*models.Ride, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"rider_id": riderID},
			{"bookings.rider_id": riderID},
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *rideRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ride, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(err, "find rides", "ride", "")
	}
	defer cursor.Close(ctx)

	rides := make([]*models.Ride, 0)
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, translateError(err, "decode rides", "ride", "")
	}

	return rides, nil
}

// now is truncated to milliseconds so values survive a BSON round trip unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
