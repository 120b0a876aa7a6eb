package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"habita/internal/domain"
)

const (
	ctxUserID  = "user_id"
	ctxEmail   = "email"
	ctxIsAdmin = "is_admin"
)

// Auth validates the bearer token and stores the caller identity in the
// request context. Reports never run without an authenticated caller.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := parseToken(tokenStr, secret)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

func parseToken(tokenStr, secret string) (*domain.Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	email, _ := mc["email"].(string)
	isAdmin, _ := mc["is_admin"].(bool)

	return &domain.Claims{UserID: userID, Email: email, IsAdmin: isAdmin}, nil
}

// GetCaller reads the identity the auth middleware stored. The boolean is
// false on routes that skipped authentication.
func GetCaller(c *gin.Context) (domain.Caller, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return domain.Caller{}, false
	}
	userID, ok := id.(uuid.UUID)
	if !ok {
		return domain.Caller{}, false
	}
	return domain.Caller{
		UserID:  userID,
		Email:   c.GetString(ctxEmail),
		IsAdmin: c.GetBool(ctxIsAdmin),
	}, true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": msg},
	})
}
