package models

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

// Location is stored as a GeoJSON point so it can be 2dsphere indexed.
type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,coordinates"`
	Address     string    `json:"address" bson:"address"`
}

// Place is the request shape of a location: an address plus its coordinate.
type Place struct {
	Coordinate
	Address string `json:"address" validate:"max=255"`
}

func NewLocation(c Coordinate, address string) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{c.Longitude, c.Latitude},
		Address:     address,
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func (l Location) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude(), Longitude: l.Longitude()}
}

func (p Place) Location() Location {
	return NewLocation(p.Coordinate, p.Address)
}

// RouteEstimate is the result of a distance and ETA lookup.
type RouteEstimate struct {
	DistanceMeters float64 `json:"distance_meters"`
	ETASeconds     float64 `json:"eta_seconds"`
	Source         string  `json:"source"`
}

const (
	EstimateSourceProvider  = "provider"
	EstimateSourceCache     = "cache"
	EstimateSourceHaversine = "haversine"
)
