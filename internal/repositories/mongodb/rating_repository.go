package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/validators"
	"rideshare/pkg/database"
)

type ratingRepository struct {
	collection *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) interfaces.RatingRepository {
	return &ratingRepository{
		collection: db.Collection(database.CollectionRatings),
	}
}

func (r *ratingRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := validators.Validate(rating); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, rating); err != nil {
		err = translateError(err, "create rating", "rating", rating.ID)
		return withRideContext(err, rating.RideID, rating.RiderID)
	}

	return nil
}

func (r *ratingRepository) GetRatingsByDriver(ctx context.Context, driverID string) ([]*models.Rating, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, translateError(err, "find ratings", "rating", "")
	}
	defer cursor.Close(ctx)

	ratings := make([]*models.Rating, 0)
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, translateError(err, "decode ratings", "rating", "")
	}

	return ratings, nil
}

func (r *ratingRepository) GetRatingByRideAndRider(ctx context.Context, rideID, riderID string) (*models.Rating, error) {
	var rating models.Rating
	err := r.collection.FindOne(ctx, bson.M{"ride_id": rideID, "rider_id": riderID}).Decode(&rating)
	if err != nil {
		return nil, withRideContext(translateError(err, "get rating", "rating", ""), rideID, riderID)
	}

	return &rating, nil
}
