package middleware

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/internal/services"
)

const (
	// ContextUser holds the resolved *models.User, absent for anonymous requests.
	ContextUser = "user"
	// ContextUserID holds the resolved user's uuid.UUID.
	ContextUserID = "userID"

	LoginPath = "/Account/Login"
)

// Session resolves the session cookie (or a bearer token) to a user and
// stores it in the context. It never aborts: anonymous requests pass through.
func Session(authService *services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		user, err := authService.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidSession) && !errors.Is(err, services.ErrUserNotFound) {
				log.Printf("[Auth] session lookup failed: %v", err)
			}
			c.Next()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// SessionToken returns the raw session token of the request.
func SessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// CurrentUser returns the user resolved by Session, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			target := LoginPath + "?returnUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
