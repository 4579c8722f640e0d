package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ownerKeyContextKey = "ownerKey"
	isAdminContextKey  = "isAdmin"
)

type authClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Bearer JWT and stores the owner key and admin
// flag on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
			c.Abort()

			return
		}

		parts := strings.Split(auth, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()

			return
		}

		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims,
			func(_ *jwt.Token) (any, error) {
				return []byte(secret), nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()

			return
		}

		ownerKey := strings.TrimSpace(claims.Subject)
		if ownerKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			c.Abort()

			return
		}

		c.Set(ownerKeyContextKey, ownerKey)
		c.Set(isAdminContextKey, claims.Admin)

		c.Next()
	}
}

// AdminOnly gates diagnostics routes behind the admin claim.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(isAdminContextKey) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()

			return
		}

		c.Next()
	}
}

func ownerKeyFrom(c *gin.Context) (string, error) {
	ownerKey := c.GetString(ownerKeyContextKey)
	if ownerKey == "" {
		return "", errors.New("owner key is missing from context")
	}

	return ownerKey, nil
}
