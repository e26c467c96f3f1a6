package activity

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/pkg"
)

// listParams are the query parameters accepted by the JSON list endpoint.
type listParams struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Action string `form:"action" binding:"omitempty,oneof=all create update delete upload"`
}

// ActivityHandler serves the activity log as JSON.
type ActivityHandler struct {
	svc domain.ActivityService
}

// NewActivityHandler creates a new ActivityHandler with the given service.
func NewActivityHandler(svc domain.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List handles GET /api/v1/activity.
func (h *ActivityHandler) List(c *gin.Context) {
	var params listParams
	if !pkg.BindAndValidate(c, &params) {
		return
	}

	q := pkg.ParseListQuery(c,
		listing.Query{Page: 1, Limit: listing.DefaultLimit},
		listing.Options{FilterNames: allowedFilterFields},
	)
	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, page)
}

// Get handles GET /api/v1/activity/:id.
func (h *ActivityHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	entry, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, entry)
}

// parseID validates an entry id.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	if id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	return uint(id), nil
}
