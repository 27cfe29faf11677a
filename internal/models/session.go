package models

import "time"

// Identity is the caller as vouched for by the auth provider.
type Identity struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsDriver bool   `json:"is_driver"`
}

// BookingSession carries the state of one booking flow: where the rider is,
// where they are going and what they have picked so far.
type BookingSession struct {
	RiderID          string      `json:"rider_id"`
	Pickup           Coordinate  `json:"pickup"`
	Destination      *Coordinate `json:"destination,omitempty"`
	SelectedRideID   string      `json:"selected_ride_id,omitempty"`
	SelectedDriverID string      `json:"selected_driver_id,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
}

func NewBookingSession(riderID string, pickup Coordinate) *BookingSession {
	return &BookingSession{
		RiderID:   riderID,
		Pickup:    pickup,
		StartedAt: time.Now(),
	}
}

func (s *BookingSession) SelectRide(rideID string) {
	s.SelectedRideID = rideID
}

func (s *BookingSession) SelectDriver(driverID string) {
	s.SelectedDriverID = driverID
}
