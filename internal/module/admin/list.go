package admin

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
)

// Interaction ops sent by the list view.
const (
	OpSearch = "search"
	OpFilter = "filter"
	OpPage   = "page"
	OpClear  = "clear"
)

// interaction is one state change requested by the list view.
type interaction struct {
	Op    string `form:"op" binding:"omitempty,oneof=search filter page clear"`
	Name  string `form:"name"`
	Value string `form:"value"`
}

// listView is everything the table region renders.
type listView struct {
	Def     resource.Definition
	Base    string
	Query   listing.Query
	URL     string
	Rows    []row
	Total   int
	Pages   int
	From    int
	To      int
	Failed  bool
	Error   string
	Filters []filterView
	Chips   []chip
	Pager   []pageLink
	Prev    string
	Next    string
	// SearchURL, ClearURL and the filter URLs expect the new value appended
	// by the form control (name="value").
	SearchURL string
	ClearURL  string
	NewURL    string
}

type row struct {
	ID      string
	Label   string
	EditURL string
	// DeleteURL carries the list state so the response can re-render it.
	DeleteURL string
	Cells     []resource.Cell
}

type filterView struct {
	Name     string
	Label    string
	Selected string
	URL      string
	Options  []resource.Option
}

type chip struct {
	Label     string
	Value     string
	RemoveURL string
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
	Gap     bool
}

// ListPage renders the full list screen.
// GET /:resource
func (h *Handler) ListPage(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := h.bindInteraction(c, def)
		if !ok {
			c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
			return
		}

		view, _ := h.loadList(c.Request.Context(), def, c.Request.URL.Query(), op, nil)
		if op.Op != "" {
			// Without htmx the op arrives as a plain GET; land on the canonical URL.
			c.Redirect(http.StatusSeeOther, view.URL)
			return
		}

		c.HTML(http.StatusOK, "admin/list.html", h.page(c, def.Key, def.Title, gin.H{"List": view}))
	}
}

// Table renders the table region after an interaction and replaces the
// browser URL with the resulting state.
// GET /:resource/table
func (h *Handler) Table(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := h.bindInteraction(c, def)
		if !ok {
			c.Header("HX-Reswap", "none")
			middleware.SetToast(c, "That list action is not supported.", middleware.ToastError)
			c.Status(http.StatusOK)
			return
		}

		view, failure := h.loadList(c.Request.Context(), def, c.Request.URL.Query(), op, replaceURL(c, def))
		if failure != nil {
			middleware.SetToast(c, view.Error, middleware.ToastError)
		}
		c.HTML(http.StatusOK, "admin/table.html", h.page(c, def.Key, def.Title, gin.H{"List": view}))
	}
}

// Delete removes a record, then re-renders the table for the state carried by
// the request so the page clamps when the last row of the last page went.
// DELETE /:resource/:id
func (h *Handler) Delete(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := strings.TrimSpace(c.Param("id"))
		if err := c.Request.ParseForm(); err != nil {
			h.logger.WarnContext(ctx, "unreadable delete request", slog.String("resource", def.Key), slog.Any("error", err))
			c.Header("HX-Reswap", "none")
			middleware.SetToast(c, "Could not read the request. Reload the page and try again.", middleware.ToastError)
			c.Status(http.StatusBadRequest)
			return
		}

		ctrl, _ := h.controller(ctx, def, nil)
		ctrl.Initialize(c.Request.Form)

		err := ctrl.Delete(ctx, id)
		if err != nil && ctrl.Snapshot().Status != listing.StatusFailed {
			c.Header("HX-Reswap", "none")
			middleware.SetToast(c, domain.DisplayMessage(err, "Could not delete the "+def.Singular+". Please try again."), middleware.ToastError)
			c.Status(http.StatusOK)
			return
		}

		h.record(ctx, def, domain.ActionDelete, id, summary("Deleted", def, id, ""))

		view := h.listView(ctx, def, ctrl.Snapshot())
		middleware.SetToast(c, capitalize(def.Singular)+" deleted.", middleware.ToastSuccess)
		c.Header("HX-Replace-Url", view.URL)
		c.HTML(http.StatusOK, "admin/table.html", h.page(c, def.Key, def.Title, gin.H{"List": view}))
	}
}

func (h *Handler) bindInteraction(c *gin.Context, def resource.Definition) (interaction, bool) {
	var op interaction
	if err := c.ShouldBindQuery(&op); err != nil {
		return op, false
	}
	if op.Op == OpFilter && !slices.Contains(def.FilterNames(), op.Name) {
		return op, false
	}
	return op, true
}

// replaceURL persists list states into the browser URL through htmx.
func replaceURL(c *gin.Context, def resource.Definition) listing.Persister {
	return func(q listing.Query) {
		c.Header("HX-Replace-Url", listURL("/"+def.Key, q))
	}
}

// controller creates a per-request list controller. The returned pointer
// receives the last failure reported through the notifier.
func (h *Handler) controller(ctx context.Context, def resource.Definition, persist listing.Persister) (*listing.Controller[backend.Record], *error) {
	var failure error
	ctrl := listing.NewController(h.source(def), listing.Config{
		Defaults: def.Defaults(h.cfg.DefaultLimit),
		Options:  def.ListOptions(h.cfg.MaxLimit),
		Persist:  persist,
		Notify: func(err error) {
			failure = err
			h.logger.WarnContext(ctx, "list fetch failed",
				slog.String("resource", def.Key),
				slog.Any("error", err),
			)
		},
		Observe: h.listObserver(def),
		Logger:  h.logger,
	})
	return ctrl, &failure
}

// loadList seeds a controller from the URL, applies op and builds the view.
func (h *Handler) loadList(ctx context.Context, def resource.Definition, values url.Values, op interaction, persist listing.Persister) (listView, error) {
	ctrl, failure := h.controller(ctx, def, persist)
	ctrl.Initialize(values)
	_ = applyInteraction(ctx, ctrl, op)
	return h.listView(ctx, def, ctrl.Snapshot()), *failure
}

func applyInteraction(ctx context.Context, ctrl *listing.Controller[backend.Record], op interaction) error {
	switch op.Op {
	case OpSearch:
		return ctrl.SetSearch(ctx, op.Value)
	case OpFilter:
		return ctrl.SetFilter(ctx, op.Name, op.Value)
	case OpPage:
		n, err := strconv.Atoi(strings.TrimSpace(op.Value))
		if err != nil {
			n = 1
		}
		return ctrl.SetPage(ctx, n)
	case OpClear:
		return ctrl.ClearFilters(ctx)
	default:
		return ctrl.Fetch(ctx)
	}
}

func (h *Handler) listView(ctx context.Context, def resource.Definition, snap listing.Snapshot[backend.Record]) listView {
	base := "/" + def.Key
	q := snap.Query

	v := listView{
		Def:       def,
		Base:      base,
		Query:     q,
		URL:       listURL(base, q),
		Total:     snap.Page.TotalItems,
		Pages:     snap.Page.TotalPages,
		Failed:    snap.Status == listing.StatusFailed,
		SearchURL: opURL(base, q, OpSearch, ""),
		ClearURL:  opURL(base, q, OpClear, ""),
	}
	v.From, v.To = snap.Page.Range(q)
	if def.CanCreate {
		v.NewURL = base + "/new?return=" + url.QueryEscape(v.URL)
	}
	if v.Failed {
		v.Error = domain.DisplayMessage(snap.Err, "Could not load "+strings.ToLower(def.Title)+". Please try again.")
	}

	now := h.now()
	for _, rec := range snap.Page.Items {
		r := row{ID: rec.ID(), Label: recordLabel(nil, rec)}
		if def.CanEdit && r.ID != "" {
			r.EditURL = base + "/" + url.PathEscape(r.ID) + "/edit?return=" + url.QueryEscape(v.URL)
		}
		if def.CanDelete && r.ID != "" {
			r.DeleteURL = base + "/" + url.PathEscape(r.ID) + "?" + q.Encode()
		}
		for _, col := range def.Columns {
			r.Cells = append(r.Cells, col.Render(rec, now))
		}
		v.Rows = append(v.Rows, r)
	}

	options := h.loadOptions(ctx, def.References(false))
	for _, f := range def.Filters {
		opts := f.Options
		if f.Reference != nil {
			opts = options[*f.Reference]
		}
		fv := filterView{
			Name:     f.Name,
			Label:    f.Label,
			Selected: q.Filter(f.Name),
			URL:      opURL(base, q, OpFilter, f.Name),
			Options:  opts,
		}
		v.Filters = append(v.Filters, fv)
		if fv.Selected != listing.FilterAll {
			v.Chips = append(v.Chips, chip{
				Label:     f.Label,
				Value:     optionLabel(opts, fv.Selected),
				RemoveURL: withValue(opURL(base, q, OpFilter, f.Name), listing.FilterAll),
			})
		}
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Chips = append(v.Chips, chip{
			Label:     "Search",
			Value:     s,
			RemoveURL: withValue(opURL(base, q, OpSearch, ""), ""),
		})
	}

	pageURL := func(n int) string {
		return withValue(opURL(base, q, OpPage, ""), strconv.Itoa(n))
	}
	pg, err := h.paginate(ctx, q, snap.Page)
	if err != nil {
		h.logger.WarnContext(ctx, "pager unavailable", slog.String("resource", def.Key), slog.Any("error", err))
		return v
	}
	v.Pager = pagerLinks(pg, pageURL)
	if pg.PreviousPage != nil {
		v.Prev = pageURL(*pg.PreviousPage)
	}
	if pg.NextPage != nil {
		v.Next = pageURL(*pg.NextPage)
	}
	return v
}

// paginate lays out the pager for a page the backend already returned. The
// backend's total is authoritative, so no count query is issued.
func (h *Handler) paginate(ctx context.Context, q listing.Query, page listing.Page[backend.Record]) (*pagination.Pagination[backend.Record], error) {
	return pagination.NewPaginator(
		pagination.WithItemsPerPage[backend.Record](q.Limit),
		pagination.WithPagesInRange[backend.Record](h.cfg.PagerWindow),
		pagination.WithKnownTotal[backend.Record](int64(page.TotalItems)),
		pagination.WithSliceCallback(func(context.Context, int, int) ([]backend.Record, error) {
			return page.Items, nil
		}),
	).Paginate(ctx, max(q.Page, 1))
}

// listURL is the canonical, bookmarkable URL of a list state.
func listURL(base string, q listing.Query) string {
	if enc := q.Encode(); enc != "" {
		return base + "?" + enc
	}
	return base
}

// opURL is the table endpoint URL applying op to state q. name is the filter
// name for filter ops. Form controls named "value" complete it; links use
// withValue.
func opURL(base string, q listing.Query, op, name string) string {
	v := q.Values()
	v.Set(listing.ParamOp, op)
	if name != "" {
		v.Set(listing.ParamName, name)
	}
	return base + "/table?" + v.Encode()
}

func withValue(u, value string) string {
	return u + "&" + listing.ParamValue + "=" + url.QueryEscape(value)
}

// pagerLinks renders the paginator's window, adding the first and last page
// with gaps when the window does not reach them.
func pagerLinks(pg *pagination.Pagination[backend.Record], link func(int) string) []pageLink {
	if pg.TotalPages <= 1 {
		return nil
	}
	var out []pageLink
	add := func(n int) {
		out = append(out, pageLink{Number: n, URL: link(n), Current: n == pg.CurrentPage})
	}
	if pg.FirstPageInRange > pg.FirstPage {
		add(pg.FirstPage)
		if pg.FirstPageInRange > pg.FirstPage+1 {
			out = append(out, pageLink{Gap: true})
		}
	}
	for _, n := range pg.Pages {
		add(n)
	}
	if pg.LastPageInRange < pg.LastPage {
		if pg.LastPageInRange < pg.LastPage-1 {
			out = append(out, pageLink{Gap: true})
		}
		add(pg.LastPage)
	}
	return out
}

func optionLabel(opts []resource.Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
