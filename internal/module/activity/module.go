package activity

import "github.com/gin-gonic/gin"

// ActivityModule implements the app.Module interface for the activity log API.
// The activity screens are served by the admin module through Source.
type ActivityModule struct {
	handler *ActivityHandler
}

// NewModule creates a new ActivityModule.
// Panics if h is nil.
func NewModule(h *ActivityHandler) *ActivityModule {
	if h == nil {
		panic("activity.NewModule: handler must not be nil")
	}
	return &ActivityModule{handler: h}
}

// RegisterRoutes registers the activity API routes.
func (m *ActivityModule) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	api.GET("/activity", m.handler.List)
	api.GET("/activity/:id", m.handler.Get)
}
