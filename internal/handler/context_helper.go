package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/middleware"
	"github.com/seatwise/exam-seating-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil on
// unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
