package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const tooLargeMessage = "The upload is too large."

// BodyLimit caps the request body of mutating requests at limit(c) bytes.
// It must run before anything that reads the body, CSRF included, since a
// parsed form is never read again. A declared Content-Length above the cap
// is refused without reading; chunked bodies fail when the cap is crossed.
// A non-positive limit leaves the body alone.
func BodyLimit(limit func(c *gin.Context) int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		n := limit(c)
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			rejectTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past a BodyLimit cap.
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func rejectTooLarge(c *gin.Context) {
	rejectWith(c, http.StatusRequestEntityTooLarge, tooLargeMessage)
}
