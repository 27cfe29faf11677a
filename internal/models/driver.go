package models

import (
	"time"
)

// Driver is a matching candidate owned by a user account.
type Driver struct {
	ID                 string     `json:"id" bson:"_id" validate:"required"`
	UserID             string     `json:"user_id" bson:"user_id" validate:"required"`
	DisplayName        string     `json:"display_name" bson:"display_name" validate:"max=100"`
	CurrentLocation    *Location  `json:"current_location,omitempty" bson:"current_location,omitempty"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty" bson:"last_location_update,omitempty"`
	CarType            string     `json:"car_type" bson:"car_type" validate:"max=50"`
	CarSeats           int        `json:"car_seats" bson:"car_seats" validate:"gte=0,lte=20" default:"4"`
	CarImageURL        string     `json:"car_image_url,omitempty" bson:"car_image_url,omitempty" validate:"omitempty,url"`
	Rating             float64    `json:"rating" bson:"rating" validate:"gte=0,lte=5" default:"0"`
	TotalRides         int        `json:"total_rides" bson:"total_rides" validate:"gte=0" default:"0"`
	IsAvailable        bool       `json:"is_available" bson:"is_available" default:"false"`
	DeviceToken        string     `json:"-" bson:"device_token,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// Coordinate returns the driver's last known position, if any.
func (d *Driver) Coordinate() (Coordinate, bool) {
	if d.CurrentLocation == nil || len(d.CurrentLocation.Coordinates) != 2 {
		return Coordinate{}, false
	}
	return d.CurrentLocation.Coordinate(), true
}

// DriverMatch is one ranked matching result.
type DriverMatch struct {
	Driver         *Driver `json:"driver"`
	DistanceMeters float64 `json:"distance_meters"`
	ETASeconds     float64 `json:"eta_seconds"`
}

type RegisterDriverRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
	CarType     string `json:"car_type" validate:"max=50"`
	CarSeats    int    `json:"car_seats" validate:"gte=0,lte=20"`
	CarImageURL string `json:"car_image_url" validate:"omitempty,url"`
	DeviceToken string `json:"device_token" validate:"max=4096"`
}

type UpdateLocationRequest struct {
	Coordinate
}

type UpdateAvailabilityRequest struct {
	Available bool `json:"available"`
}

type MatchRequest struct {
	Pickup      Coordinate  `json:"pickup" validate:"required"`
	Destination *Coordinate `json:"destination"`
	RideID      string      `json:"ride_id"`
	Limit       int         `json:"limit" validate:"gte=0,lte=50"`
}
