package pagination

// Pagination carries offset paging parameters from query strings.
type Pagination struct {
	Page int `form:"page,default=1"`
	Size int `form:"size,default=20"`
}

// Normalize clamps page and size into valid bounds. maxSize <= 0 means
// the default cap of 1000 rows per page.
func (p Pagination) Normalize(maxSize int) Pagination {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

func (p Pagination) Limit() int {
	return p.Size
}

// Page is a paginated result envelope.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func NewPage[T any](data []T, total int64, p Pagination) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Total: total, Page: p.Page, Size: p.Size}
}

// Exhausted reports whether paging past the current page would read
// beyond total. Export loops use it as their stop condition.
func (p Pagination) Exhausted(total int64) bool {
	return int64(p.Page)*int64(p.Size) >= total
}
