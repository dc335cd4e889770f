// internal/domain/common/repository_common.go
package common

// SortOrder is the direction of an ordered scan.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort names a column and a direction. Each domain validates its own columns.
type Sort struct {
	Column string
	Order  SortOrder
}

// Page is offset paging (1-based).
type Page struct {
	Number  int
	PerPage int // <= 0 means implementation default
}

// PageResult is one page of T.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
	TotalPages int
	Page       int
	PerPage    int
}

const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// NormalizePage clamps page to sane bounds.
func NormalizePage(p Page) Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Paginate slices an already ordered result set.
func Paginate[T any](all []T, p Page) PageResult[T] {
	p = NormalizePage(p)
	total := len(all)
	pages := 0
	if total > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	start := (p.Number - 1) * p.PerPage
	if start > total {
		start = total
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	items := make([]T, 0, end-start)
	items = append(items, all[start:end]...)
	return PageResult[T]{
		Items:      items,
		TotalCount: total,
		TotalPages: pages,
		Page:       p.Number,
		PerPage:    p.PerPage,
	}
}
