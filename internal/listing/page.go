package listing

// Page is one bounded slice of a resource collection plus its totals.
type Page[T any] struct {
	Items      []T `json:"data"`
	TotalItems int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a Page, computing TotalPages from totalItems and limit.
func NewPage[T any](items []T, totalItems, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		TotalItems: max(totalItems, 0),
		TotalPages: TotalPages(totalItems, limit),
	}
}

// TotalPages returns ceil(totalItems / limit), or 0 for an empty collection.
func TotalPages(totalItems, limit int) int {
	if totalItems <= 0 || limit <= 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}

// Empty reports whether the page holds no items.
func (p Page[T]) Empty() bool {
	return len(p.Items) == 0
}

// Range returns the 1-based positions of the first and last item on the page
// for display ("showing 11–20 of 47"). Both are 0 for an empty page.
func (p Page[T]) Range(q Query) (from, to int) {
	if len(p.Items) == 0 {
		return 0, 0
	}
	from = q.Offset() + 1
	return from, from + len(p.Items) - 1
}
