package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/mahabub-bd/purepac-admin/internal/catalog"
)

// Template directories under templates/ whose files make up the shared set
// every page is parsed on top of.
var sharedDirs = []string{"layouts", "partials"}

// TemplateRenderer is gin's HTML renderer for the console. Each page under
// templates/ (admin/list.html, errors/404.html, ...) is compiled into its own
// set holding the layouts and partials, so pages may redefine the layout's
// blocks without clashing. Full pages call {{ template "base" . }}; htmx
// fragments such as admin/table.html render without the layout.
//
// In debug mode the tree is re-read on every render so template edits show
// up without a restart.
type TemplateRenderer struct {
	fs    fs.FS
	funcs template.FuncMap
	debug bool
	pages map[string]*template.Template // nil in debug mode
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer compiles the templates/ tree of fsys. Release builds
// pass web.EmbeddedFS; debug builds pass the on-disk web directory.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{fs: fsys, funcs: templateFuncMap(), debug: debug}
	if debug {
		return r, nil
	}
	pages, err := r.compile()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.pages = pages
	return r, nil
}

// Instance implements render.HTMLRender. name is relative to templates/.
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	pages := r.pages
	if r.debug {
		var err error
		if pages, err = r.compile(); err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}
	return &HTMLInstance{Template: pages[name], Name: name, Data: data}
}

func (r *TemplateRenderer) compile() (map[string]*template.Template, error) {
	shared := template.New("").Funcs(r.funcs)
	for _, dir := range sharedDirs {
		files, err := fs.Glob(r.fs, path.Join("templates", dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		for _, f := range files {
			if err := parseFile(shared.New(f), r.fs, f); err != nil {
				return nil, err
			}
		}
	}

	files, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		set, err := shared.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone shared set for %s: %w", f, err)
		}
		name := strings.TrimPrefix(f, "templates/")
		if err := parseFile(set.New(name), r.fs, f); err != nil {
			return nil, err
		}
		pages[name] = set
	}
	return pages, nil
}

func parseFile(t *template.Template, fsys fs.FS, name string) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := t.Parse(string(b)); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// discoverPageTemplates lists every .html file under templates/ outside the
// shared directories.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, dir := range sharedDirs {
				if p == path.Join("templates", dir) {
					return fs.SkipDir
				}
			}
			return nil
		}
		if path.Ext(p) == ".html" {
			pages = append(pages, p)
		}
		return nil
	})
	return pages, err
}

// templateFuncMap returns the helpers available to every template.
func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json renders v as a JavaScript value, e.g. for hx-vals attributes.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},
		"formatDate": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
		"money": catalog.FormatMoney,
		// toneClass maps a badge tone to its CSS class.
		"toneClass": func(tone string) string {
			if tone == "" {
				return "badge"
			}
			return "badge badge-" + tone
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		// dict builds a map from alternating keys and values so partials can
		// take more than one argument.
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
}

// HTMLInstance executes one compiled page.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error // debug-mode compile failure
}

// Render implements render.Render.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	switch {
	case h.err != nil:
		return h.err
	case h.Template == nil:
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType defaults the response to HTML unless a handler already
// chose a type.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
}
