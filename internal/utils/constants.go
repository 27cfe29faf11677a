package utils

import "time"

const (
	AppName = "RideShare"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Geo
	EarthRadiusKM          = 6371.0
	DefaultAverageSpeedKMH = 30.0
	DefaultSearchRadius    = 10.0 // kilometers
	GeohashPrecision       = 7

	// Rides
	DefaultCarSeats      = 4
	MaxOccurrenceWindow  = 31 * 24 * time.Hour
	DefaultPassengerName = "Anonymous"
	MaxMessageLength     = 2000

	// Cache keys
	CacheKeyDriver = "driver:%s"
	CacheKeyETA    = "eta:%s:%s"

	// Gin context keys
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	MsgInternalServer   = "Internal server error"
	MsgUnauthorized     = "Unauthorized access"
	MsgValidationFailed = "Validation failed"
	MsgInvalidRequest   = "Invalid request"
)
