package core

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Pagination selects one page of a listing. Zero values mean page 1 with the default limit.
type Pagination struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (p Pagination) Clean() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns the number of pages needed to list total items.
func (p Pagination) Pages(total int) int {
	if p.Limit < 1 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Paginate returns the page of items selected by p.
func Paginate[T any](items []T, p Pagination) []T {
	p = p.Clean()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
