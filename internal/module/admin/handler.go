// Package admin serves the list, filter and form screens of every resource
// definition over the REST backend.
package admin

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
)

const (
	// DefaultMaxUploadBytes caps one uploaded file.
	DefaultMaxUploadBytes = 5 << 20
	// DefaultPagerWindow is the number of consecutive page links shown.
	DefaultPagerWindow = 5
)

// Backend is the part of the REST client the screens use.
type Backend interface {
	List(ctx context.Context, resource string, q listing.Query) (listing.Page[backend.Record], error)
	Get(ctx context.Context, resource, id string) (backend.Record, error)
	Reference(ctx context.Context, resource string) ([]backend.Record, error)
	Create(ctx context.Context, resource string, payload map[string]any) (backend.Record, error)
	Update(ctx context.Context, resource, id string, payload map[string]any) (backend.Record, error)
	Delete(ctx context.Context, resource, id string) error
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// ActivityRecorder stores an entry per successful mutation.
type ActivityRecorder interface {
	Record(ctx context.Context, resource, action, recordID, summary string) error
}

// Metrics counts list fetches and mutations.
type Metrics interface {
	ListObserver(resource string) func(outcome string)
	Mutation(resource, action string)
}

// Config bounds list and upload handling.
type Config struct {
	DefaultLimit   int
	MaxLimit       int
	PagerWindow    int
	MaxUploadBytes int64
}

// Deps are the dependencies of a Handler. Backend, Validator and Definitions
// are required.
type Deps struct {
	Backend     Backend
	Validator   *validation.Validator
	Definitions []resource.Definition
	// Sources replace the backend collection of the definition with the same
	// key. Mutations on such local sources are not recorded as activity.
	Sources  map[string]listing.Source[backend.Record]
	Activity ActivityRecorder
	Metrics  Metrics
	Logger   *slog.Logger
	Config   Config
	Now      func() time.Time
}

// Handler serves the admin screens.
type Handler struct {
	backend   Backend
	validator *validation.Validator
	defs      []resource.Definition
	sources   map[string]listing.Source[backend.Record]
	activity  ActivityRecorder
	metrics   Metrics
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
	nav       []navItem
}

// NewHandler creates a Handler. Panics if a required dependency is missing.
func NewHandler(d Deps) *Handler {
	if d.Backend == nil {
		panic("admin.NewHandler: backend must not be nil")
	}
	if d.Validator == nil {
		panic("admin.NewHandler: validator must not be nil")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config.DefaultLimit <= 0 {
		d.Config.DefaultLimit = listing.DefaultLimit
	}
	if d.Config.MaxLimit <= 0 {
		d.Config.MaxLimit = listing.MaxLimit
	}
	if d.Config.PagerWindow <= 0 {
		d.Config.PagerWindow = DefaultPagerWindow
	}
	if d.Config.MaxUploadBytes <= 0 {
		d.Config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	h := &Handler{
		backend:   d.Backend,
		validator: d.Validator,
		defs:      d.Definitions,
		sources:   d.Sources,
		activity:  d.Activity,
		metrics:   d.Metrics,
		logger:    d.Logger,
		cfg:       d.Config,
		now:       d.Now,
	}
	for _, def := range d.Definitions {
		h.nav = append(h.nav, navItem{Key: def.Key, Title: def.Title, URL: "/" + def.Key})
	}
	return h
}

// Definitions returns the served definitions in menu order.
func (h *Handler) Definitions() []resource.Definition {
	return h.defs
}

func (h *Handler) lookup(key string) (resource.Definition, bool) {
	for _, d := range h.defs {
		if d.Key == key {
			return d, true
		}
	}
	return resource.Definition{}, false
}

// source returns the collection a definition lists from.
func (h *Handler) source(def resource.Definition) listing.Source[backend.Record] {
	if src, ok := h.sources[def.Key]; ok {
		return src
	}
	return endpointSource{backend: h.backend, endpoint: def.Endpoint}
}

func (h *Handler) isLocal(def resource.Definition) bool {
	_, ok := h.sources[def.Key]
	return ok
}

// record stores an activity entry and counts the mutation. Failures are
// logged; the mutation itself already succeeded.
func (h *Handler) record(ctx context.Context, def resource.Definition, action, recordID, summary string) {
	if h.metrics != nil {
		h.metrics.Mutation(def.Key, action)
	}
	if h.activity == nil || h.isLocal(def) {
		return
	}
	if err := h.activity.Record(ctx, def.Key, action, recordID, summary); err != nil {
		h.logger.WarnContext(ctx, "activity record failed",
			slog.String("resource", def.Key),
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

func (h *Handler) listObserver(def resource.Definition) func(string) {
	if h.metrics == nil {
		return nil
	}
	return h.metrics.ListObserver(def.Key)
}

// page wraps view data with the layout's shared fields.
func (h *Handler) page(c *gin.Context, active, title string, data gin.H) gin.H {
	data["Nav"] = h.nav
	data["Active"] = active
	data["Title"] = title
	data["CSRFToken"] = middleware.GetCSRFToken(c)
	return data
}

func (h *Handler) renderError(c *gin.Context, err error) {
	if domain.IsNotFound(err) {
		c.HTML(404, "errors/404.html", gin.H{})
		return
	}
	h.logger.ErrorContext(c.Request.Context(), "page load failed", slog.Any("error", err))
	c.HTML(500, "errors/500.html", gin.H{})
}

// endpointSource lists a backend collection.
type endpointSource struct {
	backend  Backend
	endpoint string
}

func (s endpointSource) List(ctx context.Context, q listing.Query) (listing.Page[backend.Record], error) {
	return s.backend.List(ctx, s.endpoint, q)
}

func (s endpointSource) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, s.endpoint, id)
}

type navItem struct {
	Key   string
	Title string
	URL   string
}

// recordLabel names a record for toasts and activity summaries.
func recordLabel(values resource.Values, rec backend.Record) string {
	for _, key := range []string{"name", "title", "code", "rolename", "email", "orderNo", "invoiceNo"} {
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
		if v := strings.TrimSpace(rec.String(key)); v != "" {
			return v
		}
	}
	return ""
}

func summary(verb string, def resource.Definition, id, label string) string {
	switch {
	case label != "":
		return verb + " " + def.Singular + " " + label
	case id != "":
		return verb + " " + def.Singular + " #" + id
	default:
		return verb + " " + def.Singular
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
