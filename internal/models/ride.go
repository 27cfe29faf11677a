package models

import (
	"strings"
	"time"
)

type RideStatus string
type Weekday string

const (
	RideStatusRequesting RideStatus = "requesting"
	RideStatusAssigned   RideStatus = "assigned"
	RideStatusFull       RideStatus = "full"
	RideStatusInProgress RideStatus = "in-progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

func (s RideStatus) Valid() bool {
	switch s {
	case RideStatusRequesting, RideStatusAssigned, RideStatusFull,
		RideStatusInProgress, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// WeekdayOf returns the ride_days tag for t's weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

type Ride struct {
	ID                 string     `json:"id" bson:"_id" validate:"required"`
	RiderID            string     `json:"rider_id" bson:"rider_id" validate:"required"`
	DriverID           *string    `json:"driver_id" bson:"driver_id"`
	Origin             Location   `json:"origin" bson:"origin" validate:"required"`
	Destination        Location   `json:"destination" bson:"destination" validate:"required"`
	Waypoints          []Location `json:"waypoints" bson:"waypoints" validate:"max=5,dive"`
	ScheduledAt        time.Time  `json:"scheduled_at" bson:"scheduled_at"`
	AvailableSeats     int        `json:"available_seats" bson:"available_seats" validate:"gte=0"`
	Capacity           int        `json:"capacity" bson:"capacity" validate:"gte=0"`
	Status             RideStatus `json:"status" bson:"status" validate:"required,oneof=requesting assigned full in-progress completed cancelled"`
	Recurring          bool       `json:"recurring" bson:"recurring"`
	RideDays           []Weekday  `json:"ride_days,omitempty" bson:"ride_days,omitempty" validate:"omitempty,unique,dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	TemplateID         *string    `json:"template_id,omitempty" bson:"template_id,omitempty"`
	Active             bool       `json:"active" bson:"active"`
	Priority           int        `json:"priority" bson:"priority"`
	Distance           float64    `json:"distance" bson:"distance" validate:"gte=0"` // meters
	Duration           float64    `json:"duration" bson:"duration" validate:"gte=0"` // seconds
	CarType            string     `json:"car_type,omitempty" bson:"car_type,omitempty"`
	Bookings           []Booking  `json:"bookings" bson:"bookings" validate:"dive"`
	Version            int64      `json:"version" bson:"version"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

type Booking struct {
	RiderID  string    `json:"rider_id" bson:"rider_id" validate:"required"`
	Seats    int       `json:"seats" bson:"seats" validate:"min=1"`
	BookedAt time.Time `json:"booked_at" bson:"booked_at"`
}

// IsTemplate reports whether the ride is a recurring template rather than a single trip.
func (r *Ride) IsTemplate() bool {
	return r.Recurring && len(r.RideDays) > 0 && r.TemplateID == nil
}

func (r *Ride) HasDriver() bool {
	return r.DriverID != nil && *r.DriverID != ""
}

func (r *Ride) IsDriver(userID string) bool {
	return r.HasDriver() && *r.DriverID == userID
}

// IsPassenger reports whether userID requested the ride or holds a booking on it.
func (r *Ride) IsPassenger(userID string) bool {
	if r.RiderID == userID {
		return true
	}
	for _, b := range r.Bookings {
		if b.RiderID == userID {
			return true
		}
	}
	return false
}

func (r *Ride) BookedSeats() int {
	total := 0
	for _, b := range r.Bookings {
		total += b.Seats
	}
	return total
}

func (r *Ride) RunsOn(day Weekday) bool {
	for _, d := range r.RideDays {
		if d == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so transitions never alias the stored record.
func (r *Ride) Clone() *Ride {
	if r == nil {
		return nil
	}
	c := *r
	c.DriverID = cloneString(r.DriverID)
	c.TemplateID = cloneString(r.TemplateID)
	c.Origin = cloneLocation(r.Origin)
	c.Destination = cloneLocation(r.Destination)
	if r.Waypoints != nil {
		c.Waypoints = make([]Location, len(r.Waypoints))
		for i, w := range r.Waypoints {
			c.Waypoints[i] = cloneLocation(w)
		}
	}
	if r.RideDays != nil {
		c.RideDays = append([]Weekday(nil), r.RideDays...)
	}
	if r.Bookings != nil {
		c.Bookings = append([]Booking(nil), r.Bookings...)
	}
	c.AssignedAt = cloneTime(r.AssignedAt)
	c.StartedAt = cloneTime(r.StartedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

// CreateRideRequest is the body of a rider's trip request.
type CreateRideRequest struct {
	Origin      Place      `json:"origin" validate:"required"`
	Destination Place      `json:"destination" validate:"required"`
	Waypoints   []Place    `json:"waypoints" validate:"max=5,dive"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Seats       int        `json:"seats" validate:"gte=0,lte=20"`
	Recurring   bool       `json:"recurring"`
	RideDays    []Weekday  `json:"ride_days" validate:"omitempty,unique,dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	Priority    int        `json:"priority"`
	CarType     string     `json:"car_type" validate:"max=50"`
}

type BookSeatsRequest struct {
	Seats int `json:"seats" validate:"required,min=1"`
}

type CancelRideRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required"`
}

type MaterializeRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtfield=From"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneLocation(l Location) Location {
	if l.Coordinates != nil {
		l.Coordinates = append([]float64(nil), l.Coordinates...)
	}
	return l
}
