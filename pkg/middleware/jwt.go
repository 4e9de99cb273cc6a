package middleware

import (
	"strings"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case insensitively.
func BearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// NewJWTMiddleware only lets requests with a valid access token through.
// The user's ID and name are stored as userID and username.
func NewJWTMiddleware(s *service.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		c.Set("userID", user.ID)
		c.Set("username", user.Username)
		c.Next()
	}
}
