package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
)

// SessionIDHeader groups requests from one jam session
const SessionIDHeader = "X-Session-ID"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// SessionTracking copies a well-formed X-Session-ID header into the context
// as "session_id". Requests without one stay anonymous.
func SessionTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(SessionIDHeader); sessionIDPattern.MatchString(id) {
			c.Set("session_id", id)
		}
		c.Next()
	}
}
