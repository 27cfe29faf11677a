package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"rideshare/internal/models"
	"rideshare/internal/services"
	"rideshare/internal/utils"
)

type RideHandler struct {
	rideService   services.RideService
	ratingService services.RatingService
}

func NewRideHandler(rideService services.RideService, ratingService services.RatingService) *RideHandler {
	return &RideHandler{
		rideService:   rideService,
		ratingService: ratingService,
	}
}

// CreateRide requests a new ride, or a recurring template when ride_days are given
func (h *RideHandler) CreateRide(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.CreateRideRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.RequestRide(c.Request.Context(), identity, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride requested successfully", ride)
}

// GetRide retrieves ride details
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

// GetMyRides lists rides the caller requested or booked, newest first
func (h *RideHandler) GetMyRides(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rides, err := h.rideService.ListRiderRides(c.Request.Context(), identity.UserID, params.GetSkip(), params.GetLimit())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Page: params.Page, PageSize: params.PageSize, Count: len(rides)}
	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, meta)
}

func (h *RideHandler) AssignDriver(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.AssignDriverRequest
	if !bindJSON(c, &request) {
		return
	}
	if request.DriverID == "" {
		utils.ValidationErrorResponse(c, map[string]string{"driver_id": "driver_id is required"})
		return
	}

	ride, err := h.rideService.AssignDriver(c.Request.Context(), identity, c.Param("id"), request.DriverID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver assigned successfully", ride)
}

// AutoAssign assigns the best matching driver near the ride's origin
func (h *RideHandler) AutoAssign(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.AutoAssign(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver assigned successfully", ride)
}

func (h *RideHandler) BookSeats(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.BookSeatsRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.BookSeats(c.Request.Context(), identity, c.Param("id"), request.Seats)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Seats booked successfully", ride)
}

func (h *RideHandler) StartRide(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.StartRide(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride started successfully", ride)
}

func (h *RideHandler) CompleteRide(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride completed successfully", ride)
}

// CancelRide cancels an assigned or in-progress ride. The body is optional.
func (h *RideHandler) CancelRide(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.CancelRideRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequestResponse(c, utils.MsgInvalidRequest+": "+err.Error())
		return
	}
	if len(request.Reason) > 255 {
		utils.ValidationErrorResponse(c, map[string]string{"reason": "reason must be at most 255 characters"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), identity, c.Param("id"), request.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride cancelled successfully", ride)
}

// MaterializeOccurrences creates the template's rides for a date window
func (h *RideHandler) MaterializeOccurrences(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.MaterializeRequest
	if !bindJSON(c, &request) {
		return
	}

	rides, err := h.rideService.MaterializeOccurrences(c.Request.Context(), identity, c.Param("id"), request.From, request.To)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Occurrences materialized successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) GetOccurrences(c *gin.Context) {
	if _, ok := currentIdentity(c); !ok {
		return
	}

	rides, err := h.rideService.ListOccurrences(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Occurrences retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) DeactivateTemplate(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.DeactivateTemplate(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Recurring ride deactivated successfully", ride)
}

// SubmitRating rates the driver of a completed ride
func (h *RideHandler) SubmitRating(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.SubmitRatingRequest
	if !bindJSON(c, &request) {
		return
	}

	rating, err := h.ratingService.SubmitRating(c.Request.Context(), identity, c.Param("id"), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Rating submitted successfully", rating)
}
