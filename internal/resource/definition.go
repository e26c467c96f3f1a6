// Package resource declares the admin console's resources. One Definition
// drives the generic list, filter and form screens for a backend collection.
package resource

import (
	"fmt"
	"slices"

	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
)

// ColumnKind selects how a table cell renders its value.
type ColumnKind string

const (
	KindText           ColumnKind = "text"
	KindMoney          ColumnKind = "money"
	KindDate           ColumnKind = "date"
	KindDateTime       ColumnKind = "datetime"
	KindBadge          ColumnKind = "badge"
	KindImage          ColumnKind = "image"
	KindBool           ColumnKind = "bool"
	KindDiscountPrice  ColumnKind = "discount-price"
	KindDiscountWindow ColumnKind = "discount-window"
)

// FieldType selects the form control of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldPassword FieldType = "password"
	FieldFile     FieldType = "file"
)

// Option is one choice of a filter or select field.
type Option struct {
	Value string
	Label string
}

// Reference points at a backend collection whose records become options.
type Reference struct {
	Endpoint   string
	ValueField string
	LabelField string
}

// DiscountPaths locates the discount attributes of a record.
type DiscountPaths struct {
	Type  string
	Value string
	Start string
	End   string
}

// Column is one table column.
type Column struct {
	Label string
	// Path is a dotted path into the record.
	Path string
	Kind ColumnKind
	// Discount is required by the discount-price and discount-window kinds.
	Discount *DiscountPaths
}

// Filter is one dropdown filter of a list screen. The "all" option is
// implicit and always rendered first.
type Filter struct {
	Name      string
	Label     string
	Options   []Option
	Reference *Reference
}

// Field is one form input.
type Field struct {
	Name  string
	Label string
	Type  FieldType
	// Rules are validator tags applied to the submitted value.
	Rules     string
	Options   []Option
	Reference *Reference
	// Path reads the current value from a record when editing; defaults to Name.
	Path string
	// ForeignKey is the payload key that receives the attachment id of an
	// uploaded file. File fields only.
	ForeignKey string
	// CreateOnly fields are hidden and ignored when editing.
	CreateOnly bool
	Help       string
}

// Check validates relations between submitted values.
type Check func(values Values) validation.FieldErrors

// Prepare adjusts a payload right before it is sent.
type Prepare func(payload map[string]any, creating bool)

// Definition describes one resource screen.
type Definition struct {
	Key      string
	Title    string
	Singular string
	// Endpoint is the backend collection path.
	Endpoint     string
	DefaultLimit int
	Columns      []Column
	Filters      []Filter
	Fields       []Field
	Check        Check
	Prepare      Prepare

	CanCreate bool
	CanEdit   bool
	CanDelete bool
}

// FilterNames returns the declared filter names.
func (d Definition) FilterNames() []string {
	names := make([]string, 0, len(d.Filters))
	for _, f := range d.Filters {
		names = append(names, f.Name)
	}
	return names
}

// ListOptions returns the URL interpretation rules for this resource.
func (d Definition) ListOptions(maxLimit int) listing.Options {
	return listing.Options{FilterNames: d.FilterNames(), MaxLimit: maxLimit}
}

// Defaults returns the initial list state for absent URL parameters.
func (d Definition) Defaults(fallbackLimit int) listing.Query {
	limit := d.DefaultLimit
	if limit <= 0 {
		limit = fallbackLimit
	}
	return listing.Query{Page: 1, Limit: limit}
}

// References returns every reference collection used by filters and, when
// withFields is set, form fields. Duplicates are removed.
func (d Definition) References(withFields bool) []Reference {
	var refs []Reference
	add := func(r *Reference) {
		if r != nil && !slices.Contains(refs, *r) {
			refs = append(refs, *r)
		}
	}
	for _, f := range d.Filters {
		add(f.Reference)
	}
	if withFields {
		for _, f := range d.Fields {
			add(f.Reference)
		}
	}
	return refs
}

// FormFields returns the fields shown on the create or the edit form.
func (d Definition) FormFields(creating bool) []Field {
	out := make([]Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.CreateOnly && !creating {
			continue
		}
		out = append(out, f)
	}
	return out
}

// HasUploads reports whether the form carries file fields.
func (d Definition) HasUploads() bool {
	return slices.ContainsFunc(d.Fields, func(f Field) bool { return f.Type == FieldFile })
}

func (f Field) path() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// Registry is the ordered set of resource definitions.
type Registry struct {
	defs  []Definition
	byKey map[string]int
}

// NewRegistry validates and indexes defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byKey: make(map[string]int, len(defs))}
	for _, d := range defs {
		if d.Key == "" || d.Endpoint == "" {
			return nil, fmt.Errorf("resource: definition %q needs a key and an endpoint", d.Title)
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("resource: duplicate key %q", d.Key)
		}
		for _, c := range d.Columns {
			if (c.Kind == KindDiscountPrice || c.Kind == KindDiscountWindow) && c.Discount == nil {
				return nil, fmt.Errorf("resource: %s column %q needs discount paths", d.Key, c.Label)
			}
		}
		for _, f := range d.Fields {
			if f.Type == FieldFile && f.ForeignKey == "" {
				return nil, fmt.Errorf("resource: %s file field %q needs a foreign key", d.Key, f.Name)
			}
		}
		r.byKey[d.Key] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Lookup returns the definition registered under key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// All returns the definitions in registration order.
func (r *Registry) All() []Definition {
	return slices.Clone(r.defs)
}
