package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"rideshare/internal/models"
	"rideshare/internal/services"
	"rideshare/internal/utils"
)

type GeoHandler struct {
	geoService services.GeoService
}

func NewGeoHandler(geoService services.GeoService) *GeoHandler {
	return &GeoHandler{geoService: geoService}
}

// GetETA estimates distance and travel time between two points
func (h *GeoHandler) GetETA(c *gin.Context) {
	errs := map[string]string{}
	parse := func(key string) float64 {
		raw := c.Query(key)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs[key] = key + " must be a number"
		}
		return v
	}

	from := models.Coordinate{Latitude: parse("from_lat"), Longitude: parse("from_lng")}
	to := models.Coordinate{Latitude: parse("to_lat"), Longitude: parse("to_lng")}
	if len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	estimate, err := h.geoService.DistanceAndETA(c.Request.Context(), from, to)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Estimate retrieved successfully", estimate)
}
