package models

import "time"

type RideEventType string

const (
	RideEventRequested   RideEventType = "requested"
	RideEventAssigned    RideEventType = "assigned"
	RideEventBooked      RideEventType = "booked"
	RideEventStarted     RideEventType = "started"
	RideEventCompleted   RideEventType = "completed"
	RideEventCancelled   RideEventType = "cancelled"
	RideEventDeactivated RideEventType = "deactivated"
)

// RideEvent is published after a ride mutation commits.
type RideEvent struct {
	RideID     string        `json:"ride_id"`
	Type       RideEventType `json:"type"`
	From       RideStatus    `json:"from"`
	To         RideStatus    `json:"to"`
	ActorID    string        `json:"actor_id"`
	DriverID   string        `json:"driver_id,omitempty"`
	Seats      int           `json:"seats,omitempty"`
	Version    int64         `json:"version"`
	OccurredAt time.Time     `json:"occurred_at"`
}
