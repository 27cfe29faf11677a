package routes

import (
	"github.com/gin-gonic/gin"

	handlers "rideshare/internal/handlers/shared"
	"rideshare/internal/middleware"
)

// SetupDriverRoutes sets up driver profile, matching and ETA routes
func SetupDriverRoutes(r *gin.RouterGroup, driverHandler *handlers.DriverHandler, geoHandler *handlers.GeoHandler, authMiddleware gin.HandlerFunc) {
	drivers := r.Group("/drivers")
	drivers.Use(authMiddleware)
	{
		drivers.POST("/match", driverHandler.MatchDrivers)
		drivers.GET("/:id", driverHandler.GetDriver)
		drivers.GET("/:id/rides", driverHandler.GetDriverRides)
		drivers.GET("/:id/ratings", driverHandler.GetDriverRatings)

		me := drivers.Group("/me")
		me.Use(middleware.DriverRequired())
		{
			me.PUT("", driverHandler.RegisterDriver)
			me.PUT("/location", driverHandler.UpdateLocation)
			me.PUT("/availability", driverHandler.UpdateAvailability)
		}
	}

	geo := r.Group("/geo")
	geo.Use(authMiddleware)
	{
		geo.GET("/eta", geoHandler.GetETA)
	}
}
