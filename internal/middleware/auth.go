package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// Context keys set by Authenticate.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Claims is the token payload issued by the account service.
type Claims struct {
	UserID string          `json:"id"`
	Role   domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies an HS256 bearer token and stores the caller's ID and
// role on the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireDriver rejects callers whose token does not carry the driver role.
func RequireDriver() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ContextRole); role != domain.UserRoleDriver {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "driver access required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's ID, or "" if the request was
// not authenticated.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
