package services

import (
	"strconv"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/utils"
)

// rideTransitions lists, per event, the statuses it may start from.
var rideTransitions = map[models.RideEventType][]models.RideStatus{
	models.RideEventAssigned:  {models.RideStatusRequesting},
	models.RideEventBooked:    {models.RideStatusAssigned},
	models.RideEventStarted:   {models.RideStatusAssigned, models.RideStatusFull},
	models.RideEventCompleted: {models.RideStatusInProgress},
	models.RideEventCancelled: {models.RideStatusAssigned, models.RideStatusInProgress},
}

// CanTransition reports whether event is allowed from status.
func CanTransition(status models.RideStatus, event models.RideEventType) bool {
	for _, from := range rideTransitions[event] {
		if from == status {
			return true
		}
	}
	return false
}

func invalidTransition(ride *models.Ride, event models.RideEventType) *utils.AppError {
	return utils.ErrInvalidRideState.
		With("ride_id", ride.ID).
		With("from", string(ride.Status)).
		With("event", string(event))
}

func checkTransition(ride *models.Ride, event models.RideEventType) error {
	if ride.IsTemplate() {
		return invalidTransition(ride, event).With("reason", "recurring template")
	}
	if !CanTransition(ride.Status, event) {
		return invalidTransition(ride, event)
	}
	return nil
}

// The apply functions mutate ride in place and must be given a clone of the
// stored record. They never touch storage.

func applyAssign(ride *models.Ride, driver *models.Driver, at time.Time) error {
	if err := checkTransition(ride, models.RideEventAssigned); err != nil {
		return err
	}
	if !driver.IsAvailable {
		return invalidTransition(ride, models.RideEventAssigned).
			With("driver_id", driver.ID).
			With("reason", "driver unavailable")
	}
	capacity := driver.CarSeats
	if capacity <= 0 {
		return invalidTransition(ride, models.RideEventAssigned).
			With("driver_id", driver.ID).
			With("reason", "driver has no seat capacity")
	}

	driverID := driver.ID
	ride.DriverID = &driverID
	ride.Capacity = capacity
	if ride.AvailableSeats <= 0 || ride.AvailableSeats > capacity {
		ride.AvailableSeats = capacity
	}
	if ride.CarType == "" {
		ride.CarType = driver.CarType
	}
	ride.Status = models.RideStatusAssigned
	ride.AssignedAt = &at
	ride.UpdatedAt = at
	return nil
}

func applyBook(ride *models.Ride, riderID string, seats int, at time.Time) error {
	if seats < 1 {
		return utils.NewError(utils.KindValidation, "seats must be at least 1").With("ride_id", ride.ID)
	}
	if !ride.IsTemplate() && ride.Status == models.RideStatusFull {
		return utils.ErrNoSeatsAvailable.
			With("ride_id", ride.ID).
			With("available_seats", "0")
	}
	if err := checkTransition(ride, models.RideEventBooked); err != nil {
		return err
	}
	if seats > ride.AvailableSeats {
		return utils.ErrNoSeatsAvailable.
			With("ride_id", ride.ID).
			With("available_seats", strconv.Itoa(ride.AvailableSeats)).
			With("requested", strconv.Itoa(seats))
	}

	ride.AvailableSeats -= seats
	ride.Bookings = append(ride.Bookings, models.Booking{
		RiderID:  riderID,
		Seats:    seats,
		BookedAt: at,
	})
	if ride.AvailableSeats == 0 {
		ride.Status = models.RideStatusFull
	}
	ride.UpdatedAt = at
	return nil
}

func applyStart(ride *models.Ride, actorID string, at time.Time) error {
	if err := checkTransition(ride, models.RideEventStarted); err != nil {
		return err
	}
	if !ride.IsDriver(actorID) {
		return utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the assigned driver can start")
	}

	ride.Status = models.RideStatusInProgress
	ride.StartedAt = &at
	ride.UpdatedAt = at
	return nil
}

func applyComplete(ride *models.Ride, actorID string, at time.Time) error {
	if err := checkTransition(ride, models.RideEventCompleted); err != nil {
		return err
	}
	if !ride.IsDriver(actorID) {
		return utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the assigned driver can complete")
	}

	ride.Status = models.RideStatusCompleted
	ride.CompletedAt = &at
	ride.UpdatedAt = at
	return nil
}

// applyCancel clears driver_id since only active and completed rides carry one.
// Seats are not returned anywhere, each ride owns its own count.
func applyCancel(ride *models.Ride, actorID, reason string, at time.Time) error {
	if err := checkTransition(ride, models.RideEventCancelled); err != nil {
		return err
	}
	if ride.RiderID != actorID && !ride.IsDriver(actorID) {
		return utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the rider or driver can cancel")
	}

	ride.Status = models.RideStatusCancelled
	ride.DriverID = nil
	ride.CancelledBy = actorID
	ride.CancellationReason = reason
	ride.CancelledAt = &at
	ride.UpdatedAt = at
	return nil
}

func applyDeactivate(ride *models.Ride, actorID string, at time.Time) error {
	if !ride.IsTemplate() {
		return invalidTransition(ride, models.RideEventDeactivated).With("reason", "not a recurring template")
	}
	if ride.RiderID != actorID {
		return utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the owner can deactivate")
	}

	ride.Active = false
	ride.UpdatedAt = at
	return nil
}
