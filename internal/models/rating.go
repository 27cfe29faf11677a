package models

import (
	"time"
)

type Rating struct {
	ID            string    `json:"id" bson:"_id" validate:"required"`
	RideID        string    `json:"ride_id" bson:"ride_id" validate:"required"`
	DriverID      string    `json:"driver_id" bson:"driver_id" validate:"required"`
	RiderID       string    `json:"rider_id" bson:"rider_id" validate:"required"`
	PassengerName string    `json:"passenger_name" bson:"passenger_name" default:"Anonymous"`
	Overall       float64   `json:"overall" bson:"overall" validate:"gte=0,lte=5"`
	Driving       float64   `json:"driving" bson:"driving" validate:"gte=0,lte=5"`
	Behavior      float64   `json:"behavior" bson:"behavior" validate:"gte=0,lte=5"`
	Punctuality   float64   `json:"punctuality" bson:"punctuality" validate:"gte=0,lte=5"`
	Cleanliness   float64   `json:"cleanliness" bson:"cleanliness" validate:"gte=0,lte=5"`
	Comment       string    `json:"comment,omitempty" bson:"comment,omitempty" validate:"max=500"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

type CategoryAverages struct {
	Driving     float64 `json:"driving"`
	Behavior    float64 `json:"behavior"`
	Punctuality float64 `json:"punctuality"`
	Cleanliness float64 `json:"cleanliness"`
}

type DriverRatingSummary struct {
	Average    float64          `json:"average"`
	Categories CategoryAverages `json:"categories"`
	Count      int              `json:"count"`
}

// DriverRatings is a driver's ratings, newest first, with their aggregate.
type DriverRatings struct {
	DriverID string              `json:"driver_id"`
	Summary  DriverRatingSummary `json:"summary"`
	Ratings  []*Rating           `json:"ratings"`
}

type SubmitRatingRequest struct {
	Overall     float64 `json:"overall" validate:"gte=0,lte=5"`
	Driving     float64 `json:"driving" validate:"gte=0,lte=5"`
	Behavior    float64 `json:"behavior" validate:"gte=0,lte=5"`
	Punctuality float64 `json:"punctuality" validate:"gte=0,lte=5"`
	Cleanliness float64 `json:"cleanliness" validate:"gte=0,lte=5"`
	Comment     string  `json:"comment" validate:"max=500"`
}
