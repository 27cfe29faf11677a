package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"rideshare/internal/models"
	"rideshare/internal/services"
	"rideshare/internal/utils"
)

type DriverHandler struct {
	driverService   services.DriverService
	matchingService services.MatchingService
	rideService     services.RideService
	ratingService   services.RatingService
}

func NewDriverHandler(
	driverService services.DriverService,
	matchingService services.MatchingService,
	rideService services.RideService,
	ratingService services.RatingService,
) *DriverHandler {
	return &DriverHandler{
		driverService:   driverService,
		matchingService: matchingService,
		rideService:     rideService,
		ratingService:   ratingService,
	}
}

// RegisterDriver creates or updates the caller's driver profile
func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.RegisterDriverRequest
	if !bindJSON(c, &request) {
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), identity, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver profile saved successfully", driver)
}

func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver retrieved successfully", driver)
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.UpdateLocationRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), identity, request.Coordinate); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated successfully", request.Coordinate)
}

func (h *DriverHandler) UpdateAvailability(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.UpdateAvailabilityRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := h.driverService.SetAvailability(c.Request.Context(), identity, request.Available); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated successfully", gin.H{"available": request.Available})
}

// MatchDrivers ranks available drivers near the pickup by ETA
func (h *DriverHandler) MatchDrivers(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.MatchRequest
	if !bindJSON(c, &request) {
		return
	}
	if request.Limit < 0 || request.Limit > 50 {
		utils.ValidationErrorResponse(c, map[string]string{"limit": "limit must be between 0 and 50"})
		return
	}

	session := models.NewBookingSession(identity.UserID, request.Pickup)
	session.Destination = request.Destination
	if request.RideID != "" {
		session.SelectRide(request.RideID)
	}

	matches, err := h.matchingService.FindDrivers(c.Request.Context(), session, request.Limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Drivers matched successfully", matches, &utils.Meta{Count: len(matches)})
}

// GetDriverRides lists a driver's rides, optionally filtered by ?status=assigned,full
func (h *DriverHandler) GetDriverRides(c *gin.Context) {
	var statuses []models.RideStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.RideStatus(strings.TrimSpace(s))
			if !status.Valid() {
				utils.ValidationErrorResponse(c, map[string]string{"status": "unknown ride status " + string(status)})
				return
			}
			statuses = append(statuses, status)
		}
	}

	rides, err := h.rideService.ListDriverRides(c.Request.Context(), c.Param("id"), statuses)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *DriverHandler) GetDriverRatings(c *gin.Context) {
	ratings, err := h.ratingService.GetDriverRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ratings retrieved successfully", ratings)
}
