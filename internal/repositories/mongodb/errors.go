package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"rideshare/internal/utils"
)

// translateError maps driver errors onto the service error kinds.
func translateError(err error, op, resource, id string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return utils.NewError(utils.KindNotFound, resource+" not found").With(resource+"_id", id)
	case mongo.IsDuplicateKeyError(err):
		return utils.WrapError(utils.KindDuplicate, resource+" already exists", err).With(resource+"_id", id)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return utils.WrapError(utils.KindProviderUnavailable, "document store unavailable", err).With("operation", op)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func withRideContext(err error, rideID, riderID string) error {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	return appErr.With("ride_id", rideID).With("rider_id", riderID)
}
