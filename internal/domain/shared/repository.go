package shared

// DefaultPageSize applies when a paged query sets no page size
const DefaultPageSize = 50

// Filter holds paging, sorting and search options of list queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	// Search is a case-insensitive substring match on the listed entity's name
	Search string
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the page size, falling back to DefaultPageSize
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}
