package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront-backend/internal/constants"
	"storefront-backend/internal/models"
)

// IdentityMiddleware resolves the caller's identity from a bearer token or
// the auth cookie. It never aborts: an absent or invalid credential yields
// an unauthenticated identity and the services decide what that means for
// each operation.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Set(constants.ContextIdentityKey, models.Identity{})
			c.Next()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.Set(constants.ContextIdentityKey, models.Identity{})
			c.Next()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Set(constants.ContextIdentityKey, models.Identity{})
			c.Next()
			return
		}

		identity := models.Identity{Token: tokenString, Authenticated: true}
		if userID, ok := claims["user_id"].(float64); ok {
			identity.UserID = uint(userID)
		}
		if email, ok := claims["email"].(string); ok {
			identity.Email = email
		}
		if identity.UserID == 0 {
			identity = models.Identity{}
		}

		c.Set(constants.ContextIdentityKey, identity)
		c.Next()
	}
}

// RequireAuth aborts requests whose identity did not authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization credentials required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by IdentityMiddleware, or an
// unauthenticated identity when the middleware did not run.
func IdentityFrom(c *gin.Context) models.Identity {
	value, exists := c.Get(constants.ContextIdentityKey)
	if !exists {
		return models.Identity{}
	}
	identity, ok := value.(models.Identity)
	if !ok {
		return models.Identity{}
	}
	return identity
}

func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		bearerToken := strings.SplitN(authHeader, " ", 2)
		if len(bearerToken) == 2 && strings.EqualFold(bearerToken[0], "Bearer") {
			return strings.TrimSpace(bearerToken[1])
		}
	}
	if cookieToken, err := c.Cookie(constants.AuthTokenCookieName); err == nil {
		return strings.TrimSpace(cookieToken)
	}
	return ""
}
