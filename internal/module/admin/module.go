package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/pkg"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
)

// AdminModule implements the app.Module interface for the resource screens.
type AdminModule struct {
	handler *Handler
}

// NewModule creates a new AdminModule.
// Panics if h is nil.
func NewModule(h *Handler) *AdminModule {
	if h == nil {
		panic("admin.NewModule: handler must not be nil")
	}
	return &AdminModule{handler: h}
}

// RegisterRoutes registers the home page, the screens of every definition
// and the read-only resource API.
func (m *AdminModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	h := m.handler

	api.GET("/resources", h.Resources)
	api.GET("/resources/:key", h.ResourceList)

	pages.GET("/", h.Home)
	for _, def := range h.defs {
		base := "/" + def.Key
		pages.GET(base, h.ListPage(def))
		pages.GET(base+"/table", h.Table(def))
		if def.CanCreate {
			pages.GET(base+"/new", h.NewPage(def))
			pages.POST(base, h.Create(def))
		}
		if def.CanEdit {
			pages.GET(base+"/:id/edit", h.EditPage(def))
			pages.PATCH(base+"/:id", h.Update(def))
			// Browsers without htmx can only POST.
			pages.POST(base+"/:id", h.Update(def))
		}
		if def.CanDelete {
			pages.DELETE(base+"/:id", h.Delete(def))
		}
	}
}

// Home renders the dashboard linking every resource screen.
// GET /
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "admin/home.html", h.page(c, "", "Dashboard", gin.H{}))
}

// resourceInfo describes one definition in the resource API.
type resourceInfo struct {
	Key       string   `json:"key"`
	Title     string   `json:"title"`
	Endpoint  string   `json:"endpoint"`
	Filters   []string `json:"filters"`
	CanCreate bool     `json:"canCreate"`
	CanEdit   bool     `json:"canEdit"`
	CanDelete bool     `json:"canDelete"`
}

// Resources handles GET /api/v1/resources.
func (h *Handler) Resources(c *gin.Context) {
	out := make([]resourceInfo, 0, len(h.defs))
	for _, def := range h.defs {
		out = append(out, infoOf(def))
	}
	pkg.Success(c, out)
}

// ResourceList handles GET /api/v1/resources/:key with the same list
// parameters as the screen.
func (h *Handler) ResourceList(c *gin.Context) {
	def, ok := h.lookup(c.Param("key"))
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeNotFound, "resource not found", nil))
		return
	}

	q := pkg.ParseListQuery(c, def.Defaults(h.cfg.DefaultLimit), def.ListOptions(h.cfg.MaxLimit))
	page, err := h.source(def).List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}

func infoOf(def resource.Definition) resourceInfo {
	return resourceInfo{
		Key:       def.Key,
		Title:     def.Title,
		Endpoint:  def.Endpoint,
		Filters:   def.FilterNames(),
		CanCreate: def.CanCreate,
		CanEdit:   def.CanEdit,
		CanDelete: def.CanDelete,
	}
}
