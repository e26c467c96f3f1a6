package listing

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query parameter names with a fixed meaning. They never become filters.
const (
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSearch = "search"

	// Interaction parameters sent by the list view to describe a state change.
	ParamOp    = "op"
	ParamName  = "name"
	ParamValue = "value"
)

// FilterAll is the filter sentinel meaning "no constraint".
const FilterAll = "all"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var reservedParams = map[string]bool{
	ParamPage:   true,
	ParamLimit:  true,
	ParamSearch: true,
	ParamOp:     true,
	ParamName:   true,
	ParamValue:  true,
	// CSRF field travels with htmx state forms.
	"_csrf_token": true,
}

// Query is the list state of one resource screen: which page, how many rows,
// the search text, and the named filters. A Query is a value; the With*
// methods return modified copies.
//
// Filters never hold the FilterAll sentinel or empty values.
type Query struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// Options bounds how URL values are interpreted.
type Options struct {
	// FilterNames restricts which keys are accepted as filters.
	// A nil slice accepts every non-reserved key.
	FilterNames []string
	// MaxLimit caps the limit; zero means MaxLimit.
	MaxLimit int
}

// NewQuery returns a normalized query.
func NewQuery(page, limit int, search string, filters map[string]string) Query {
	q := Query{Page: page, Limit: limit, Search: search, Filters: map[string]string{}}
	for name, value := range filters {
		q = q.setFilter(name, value)
	}
	return q.normalize(MaxLimit)
}

// FromValues builds a Query from URL query values. Every parameter present in
// v wins over defaults; absent ones fall back to defaults. A filter sent as
// FilterAll is present, so it clears the default for that name.
func FromValues(v url.Values, defaults Query, opts Options) Query {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	q := Query{
		Page:    defaults.Page,
		Limit:   defaults.Limit,
		Search:  defaults.Search,
		Filters: map[string]string{},
	}

	if raw, ok := first(v, ParamPage); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			q.Page = n
		}
	}
	if raw, ok := first(v, ParamLimit); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			q.Limit = n
		}
	}
	if raw, ok := first(v, ParamSearch); ok {
		q.Search = raw
	}

	var allowed map[string]bool
	if opts.FilterNames != nil {
		allowed = make(map[string]bool, len(opts.FilterNames))
		for _, name := range opts.FilterNames {
			allowed[name] = true
		}
	}

	for name, value := range defaults.Filters {
		if _, present := v[name]; present {
			continue
		}
		if allowed != nil && !allowed[name] {
			continue
		}
		q = q.setFilter(name, value)
	}
	for key, values := range v {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if allowed != nil && !allowed[key] {
			continue
		}
		q = q.setFilter(key, values[0])
	}

	return q.normalize(maxLimit)
}

// Values returns the query as URL values. Empty search and unconstrained
// filters are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(q.Page))
	v.Set(ParamLimit, strconv.Itoa(q.Limit))
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set(ParamSearch, s)
	}
	for name, value := range q.Filters {
		if isConstraint(value) {
			v.Set(name, value)
		}
	}
	return v
}

// Encode returns the query string with keys in sorted order.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// WithSearch returns a copy with the search text replaced and page reset to 1.
// Surrounding whitespace is dropped, as Values drops it.
func (q Query) WithSearch(text string) Query {
	out := q.clone()
	out.Search = strings.TrimSpace(text)
	out.Page = 1
	return out
}

// WithFilter returns a copy with one filter set (or removed when value is
// empty or FilterAll) and page reset to 1.
func (q Query) WithFilter(name, value string) Query {
	out := q.clone().setFilter(name, value)
	out.Page = 1
	return out
}

// WithPage returns a copy positioned on page n (at least 1).
func (q Query) WithPage(n int) Query {
	out := q.clone()
	out.Page = max(n, 1)
	return out
}

// Cleared returns a copy with search and filters removed and page 1.
// The limit is kept.
func (q Query) Cleared() Query {
	return Query{Page: 1, Limit: q.Limit, Filters: map[string]string{}}
}

// Filter returns the value of a filter, or FilterAll when unconstrained.
func (q Query) Filter(name string) string {
	if v, ok := q.Filters[name]; ok {
		return v
	}
	return FilterAll
}

// FilterNames returns the active filter names in sorted order.
func (q Query) FilterNames() []string {
	return slices.Sorted(maps.Keys(q.Filters))
}

// HasConstraints reports whether any search text or filter is active.
func (q Query) HasConstraints() bool {
	return strings.TrimSpace(q.Search) != "" || len(q.Filters) > 0
}

// Equal reports whether two queries describe the same state.
func (q Query) Equal(other Query) bool {
	return q.Page == other.Page &&
		q.Limit == other.Limit &&
		q.Search == other.Search &&
		maps.Equal(q.Filters, other.Filters)
}

// Offset returns the zero-based row offset of the first item on the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

func (q Query) clone() Query {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	maps.Copy(out.Filters, q.Filters)
	return out
}

func (q Query) setFilter(name, value string) Query {
	name = strings.TrimSpace(name)
	if name == "" || reservedParams[name] {
		return q
	}
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	value = strings.TrimSpace(value)
	if !isConstraint(value) {
		delete(q.Filters, name)
		return q
	}
	q.Filters[name] = value
	return q
}

func (q Query) normalize(maxLimit int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func isConstraint(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, FilterAll)
}

func first(v url.Values, key string) (string, bool) {
	values, ok := v[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
