package maps

import (
	"context"
	"errors"
)

// ErrNoRoute is returned when the provider answers but has no route between the points.
var ErrNoRoute = errors.New("maps: no route found")

type MapsProvider interface {
	Name() string
	GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DirectionsRequest struct {
	Origin      Location   `json:"origin"`
	Destination Location   `json:"destination"`
	Waypoints   []Location `json:"waypoints,omitempty"`
	Mode        string     `json:"mode"` // driving, walking, bicycling
}

type DirectionsResponse struct {
	Routes []Route `json:"routes"`
}

// Route totals cover every leg, waypoints included.
type Route struct {
	Summary  string   `json:"summary"`
	Distance Distance `json:"distance"`
	Duration Duration `json:"duration"`
}

type Distance struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"` // in meters
}

type Duration struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"` // in seconds
}

// Best returns the first route, which providers rank as recommended.
func (d *DirectionsResponse) Best() (Route, error) {
	if d == nil || len(d.Routes) == 0 {
		return Route{}, ErrNoRoute
	}
	return d.Routes[0], nil
}
