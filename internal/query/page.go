package query

// Page is one slice of a filtered, ordered result set.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TotalPages returns ceil(total/limit), and 0 when there is nothing to show.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

// NewPage assembles a page. A nil items slice is replaced with an empty one
// so it encodes as [] rather than null.
func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// Map converts the items of a page, keeping its pagination.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{
		Items:      out,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// window returns the [start, end) bounds of a page over n items.
func window(n int, p Pagination) (int, int) {
	start := min(max(p.Offset(), 0), n)
	end := min(start+max(p.Limit, 0), n)
	return start, end
}
