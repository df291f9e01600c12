package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets response headers for a JSON API. POST responses are
// never cached.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if c.Request.Method == http.MethodPost {
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}
