package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/middleware"
	"github.com/imageshare/backend/internal/models"
)

// RequestContext is the per-request state a handler works with: the
// signed-in user (nil when anonymous) and the accessibility preference.
type RequestContext struct {
	User  *models.User
	IsADA bool
}

func requestContext(c *gin.Context) RequestContext {
	return RequestContext{
		User:  middleware.CurrentUser(c),
		IsADA: middleware.ADAFrom(c),
	}
}

// UserID returns the signed-in user's id, or "" when anonymous.
func (rc RequestContext) UserID() string {
	if rc.User == nil {
		return ""
	}
	return rc.User.ID.String()
}

// Username returns the signed-in user's name, or "" when anonymous.
func (rc RequestContext) Username() string {
	if rc.User == nil {
		return ""
	}
	return rc.User.Username
}
