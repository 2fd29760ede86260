package repository

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// TotalPages rounds up; it is 0 for an empty result.
func TotalPages(total int64, size int) int {
	_, size = normalizePage(1, size)
	return int((total + int64(size) - 1) / int64(size))
}
