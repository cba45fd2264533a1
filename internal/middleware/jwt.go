package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/service"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
	"github.com/seatwise/exam-seating-api/pkg/response"
)

// ContextUserKey is where validated claims live in the gin context. Handlers
// read them through their claimsFromContext helper.
const ContextUserKey = "currentUser"

// JWT requires a valid Bearer token on every request it guards. Export
// downloads are the one deliberate exception; their signed token replaces the
// session.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
