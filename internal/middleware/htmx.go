package middleware

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// Toast kinds understood by the layout's showToast listener.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// SetToast sets the HX-Trigger response header with a showToast event.
func SetToast(c *gin.Context, message, kind string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    kind,
		},
	})
	c.Header("HX-Trigger", string(trigger))
}
