package activity

import (
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
)

// Key is the screen key of the activity log.
const Key = "activity"

// Definition describes the activity log screen. resources become the options
// of the resource filter.
func Definition(resources []resource.Option) resource.Definition {
	actions := make([]resource.Option, 0, len(domain.Actions))
	for _, a := range domain.Actions {
		actions = append(actions, resource.Option{Value: a, Label: a})
	}

	return resource.Definition{
		Key:          Key,
		Title:        "Activity",
		Singular:     "activity entry",
		Endpoint:     Key,
		DefaultLimit: 20,
		Columns: []resource.Column{
			{Label: "When", Path: "createdAt", Kind: resource.KindDateTime},
			{Label: "Resource", Path: "resource", Kind: resource.KindBadge},
			{Label: "Action", Path: "action", Kind: resource.KindBadge},
			{Label: "Record", Path: "recordId"},
			{Label: "Summary", Path: "summary"},
			{Label: "Request", Path: "requestId"},
		},
		Filters: []resource.Filter{
			{Name: "resource", Label: "Resource", Options: resources},
			{Name: "action", Label: "Action", Options: actions},
		},
		CanDelete: true,
	}
}

// ResourceOptions lists defs as filter options.
func ResourceOptions(defs []resource.Definition) []resource.Option {
	out := make([]resource.Option, 0, len(defs))
	for _, d := range defs {
		out = append(out, resource.Option{Value: d.Key, Label: d.Title})
	}
	return out
}
