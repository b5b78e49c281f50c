package middleware

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// SameOrigin rejects state-changing requests that a browser sent from another
// site. The Origin header is checked, falling back to Referer; it must name
// the request's own host or the host of appURL. Requests carrying neither
// header come from non-browser clients and pass.
func SameOrigin(appURL string) gin.HandlerFunc {
	appHost := ""
	if u, err := url.Parse(appURL); err == nil {
		appHost = strings.ToLower(u.Host)
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		source := strings.TrimRight(strings.TrimSpace(c.GetHeader("Origin")), "/")
		if source == "" || source == "null" {
			source = c.GetHeader("Referer")
		}
		if source == "" {
			c.Next()
			return
		}

		u, err := url.Parse(source)
		host := ""
		if err == nil {
			host = strings.ToLower(u.Host)
		}
		if host != "" && (host == strings.ToLower(c.Request.Host) || host == appHost) {
			c.Next()
			return
		}

		log.Printf("[Auth] WARN: cross-site %s %s from %q rejected", c.Request.Method, c.Request.URL.Path, source)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-site request rejected"})
	}
}
