package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qurux/internal/pkg/jwt"
	"qurux/internal/pkg/response"
)

// JWTAuth validates the bearer token and stores user_id, email and role in
// the gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return authenticate(jwtService, false)
}

// JWTAuthWithQuery also accepts ?token= for clients that cannot set headers,
// such as browser websockets.
func JWTAuthWithQuery(jwtService *jwt.Service) gin.HandlerFunc {
	return authenticate(jwtService, true)
}

func authenticate(jwtService *jwt.Service, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		switch {
		case authHeader != "":
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be Bearer <token>")
				return
			}
			token = strings.TrimSpace(parts[1])
		case allowQuery && c.Query("token") != "":
			token = c.Query("token")
		default:
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header required")
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID())
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}
