package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ADACookie holds the accessibility preference.
	ADACookie = "ADA"

	ContextADA = "isADA"
)

// IsADA reports whether the accessibility preference is on: the ADA cookie
// must be exactly "true".
func IsADA(r *http.Request) bool {
	cookie, err := r.Cookie(ADACookie)
	return err == nil && cookie.Value == "true"
}

// Accessibility exposes IsADA to handlers.
func Accessibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextADA, IsADA(c.Request))
		c.Next()
	}
}

// ADAFrom returns the preference stored by Accessibility, falling back to the cookie.
func ADAFrom(c *gin.Context) bool {
	if v, ok := c.Get(ContextADA); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return IsADA(c.Request)
}
