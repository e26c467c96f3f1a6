package app

import "github.com/gin-gonic/gin"

// Module is a console feature that mounts its own routes: JSON endpoints on
// the /api/v1 group and htmx pages on the CSRF-protected root group.
type Module interface {
	RegisterRoutes(api, pages *gin.RouterGroup)
}
