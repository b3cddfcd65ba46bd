package service

const (
	defaultPage     = 1
	maxPageLimit    = 100
	defaultPageSize = 10
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// normalizePage clamps page to >= 1 and limit to [1, 100], using fallback when limit is unset
func normalizePage(page, limit, fallback int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = fallback
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func offsetOf(page, limit int) int {
	return (page - 1) * limit
}
