package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"rideshare/internal/models"
	"rideshare/internal/utils"
	"rideshare/pkg/logger"
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsDriver bool   `json:"is_driver"`
	jwt.RegisteredClaims
}

// AuthRequired validates the HS256 bearer token and stores the caller's identity
func AuthRequired(secret, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			unauthorized(c, "Bearer token required")
			return
		}

		claims := &JWTClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid token")
			return
		}

		if strings.TrimSpace(claims.UserID) == "" {
			unauthorized(c, "Invalid user ID in token")
			return
		}

		identity := &models.Identity{
			UserID:   claims.UserID,
			Name:     claims.Name,
			IsDriver: claims.IsDriver,
		}
		c.Set(utils.ContextKeyIdentity, identity)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), identity.UserID))

		c.Next()
	}
}

// DriverRequired middleware ensures user is a driver
func DriverRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			unauthorized(c, "Identity not found")
			return
		}

		if !identity.IsDriver {
			utils.ErrorResponse(c, http.StatusForbidden, string(utils.KindForbidden), "Driver access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetIdentity returns the caller set by AuthRequired, or nil.
func GetIdentity(c *gin.Context) *models.Identity {
	value, exists := c.Get(utils.ContextKeyIdentity)
	if !exists {
		return nil
	}
	identity, _ := value.(*models.Identity)
	return identity
}

func unauthorized(c *gin.Context, message string) {
	utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}
