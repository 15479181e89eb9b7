package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/model"
)

const principalKey = "principal"

// Principal is the authenticated caller. Services only ever see its ID.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid claims")
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil || userID == uuid.Nil {
			abort(c, http.StatusUnauthorized, "invalid user id")
			return
		}

		role, _ := claims["role"].(string)
		c.Set(principalKey, Principal{ID: userID, Role: role})
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !p.IsAdmin() {
			abort(c, http.StatusForbidden, "admin only")
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the caller set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// SetPrincipal stores p the way AuthMiddleware does. Used by handlers under test.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message, "data": nil})
}
