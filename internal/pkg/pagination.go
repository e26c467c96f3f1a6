package pkg

import (
	"regexp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseListQuery reads the list state from the request's query string.
// Parameters absent from the URL fall back to defaults.
func ParseListQuery(c *gin.Context, defaults listing.Query, opts listing.Options) listing.Query {
	return listing.FromValues(c.Request.URL.Query(), defaults, opts)
}

// Sort returns a GORM scope that applies ORDER BY for a "field:direction" spec.
// Only field names present in the allowed list are accepted; others are silently ignored.
// Field names are validated against a strict pattern to prevent SQL injection.
func Sort(spec string, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, direction, ok := strings.Cut(spec, ":")
		if !ok {
			return db
		}

		field = strings.TrimSpace(field)
		direction = strings.TrimSpace(strings.ToLower(direction))

		if direction != "asc" && direction != "desc" {
			return db
		}
		if !validFieldName.MatchString(field) || !isAllowed(field, allowed) {
			return db
		}

		return db.Order(field + " " + direction)
	}
}

// Filter returns a GORM scope that applies an exact-match WHERE condition per
// active filter. Filters outside the allowed list are silently ignored.
func Filter(q listing.Query, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, key := range q.FilterNames() {
			if !validFieldName.MatchString(key) || !isAllowed(key, allowed) {
				continue
			}
			db = db.Where(key+" = ?", q.Filter(key))
		}
		return db
	}
}

// Search returns a GORM scope matching the query's search text as a substring
// of any of fields. It is a no-op when the search text is empty.
func Search(q listing.Query, fields []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		text := strings.TrimSpace(q.Search)
		if text == "" {
			return db
		}

		var (
			conds []string
			args  []any
		)
		for _, f := range fields {
			if !validFieldName.MatchString(f) {
				continue
			}
			conds = append(conds, f+" LIKE ?")
			args = append(args, "%"+text+"%")
		}
		if len(conds) == 0 {
			return db
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// isAllowed checks if a field name is in the allowed list.
func isAllowed(field string, allowed []string) bool {
	return slices.Contains(allowed, field)
}
