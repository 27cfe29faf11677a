package handlers

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/models"
	"rideshare/internal/utils"
)

// currentIdentity returns the authenticated caller or writes a 401.
func currentIdentity(c *gin.Context) (*models.Identity, bool) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		utils.UnauthorizedResponse(c)
		return nil, false
	}
	return identity, true
}

// bindJSON decodes the body into dest or writes a 400.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.BadRequestResponse(c, utils.MsgInvalidRequest+": "+err.Error())
		return false
	}
	return true
}
