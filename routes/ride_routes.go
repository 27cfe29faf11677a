package routes

import (
	"github.com/gin-gonic/gin"

	handlers "rideshare/internal/handlers/shared"
)

// SetupRideRoutes sets up routes for the ride lifecycle and ratings
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *handlers.RideHandler, authMiddleware gin.HandlerFunc) {
	rides := r.Group("/rides")
	rides.Use(authMiddleware)
	{
		rides.POST("", rideHandler.CreateRide)
		rides.GET("/mine", rideHandler.GetMyRides)
		rides.GET("/:id", rideHandler.GetRide)

		// Lifecycle
		rides.POST("/:id/assign", rideHandler.AssignDriver)
		rides.POST("/:id/auto-assign", rideHandler.AutoAssign)
		rides.POST("/:id/book", rideHandler.BookSeats)
		rides.POST("/:id/start", rideHandler.StartRide)
		rides.POST("/:id/complete", rideHandler.CompleteRide)
		rides.POST("/:id/cancel", rideHandler.CancelRide)

		// Recurring templates
		rides.GET("/:id/occurrences", rideHandler.GetOccurrences)
		rides.POST("/:id/occurrences", rideHandler.MaterializeOccurrences)
		rides.POST("/:id/deactivate", rideHandler.DeactivateTemplate)

		rides.POST("/:id/ratings", rideHandler.SubmitRating)
	}
}
