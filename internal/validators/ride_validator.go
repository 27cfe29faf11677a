package validators

import (
	"github.com/go-playground/validator/v10"

	"rideshare/internal/models"
)

var driverBearingStatuses = map[models.RideStatus]bool{
	models.RideStatusAssigned:   true,
	models.RideStatusFull:       true,
	models.RideStatusInProgress: true,
	models.RideStatusCompleted:  true,
}

// validateRide checks the cross-field ride invariants before a ride is written.
func validateRide(sl validator.StructLevel) {
	ride := sl.Current().Interface().(models.Ride)

	if ride.HasDriver() != driverBearingStatuses[ride.Status] {
		sl.ReportError(ride.DriverID, "driver_id", "DriverID", "driver_status", string(ride.Status))
	}

	if ride.Recurring && ride.TemplateID == nil && len(ride.RideDays) == 0 {
		sl.ReportError(ride.RideDays, "ride_days", "RideDays", "ride_days", "")
	}

	if ride.HasDriver() && ride.Capacity > 0 && ride.AvailableSeats+ride.BookedSeats() > ride.Capacity {
		sl.ReportError(ride.AvailableSeats, "available_seats", "AvailableSeats", "seat_capacity", "")
	}
}

// ValidateRide validates a ride document at the store boundary.
func ValidateRide(ride *models.Ride) error {
	return Validate(ride)
}
