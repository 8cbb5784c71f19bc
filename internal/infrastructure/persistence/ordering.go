package persistence

import (
	"strings"

	"github.com/stoptime/backend/internal/domain/shared"
)

// sortColumns maps the sort keys a client may request to table columns.
// Anything outside the map never reaches the ORDER BY clause.
type sortColumns map[string]string

var customerSort = sortColumns{
	"name":        "name",
	"city":        "address_city",
	"hourly_rate": "hourly_rate",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// orderBy returns the ORDER BY clause for filter, or fallback when the
// requested key is empty or unknown.
func (s sortColumns) orderBy(filter shared.Filter, fallback string) string {
	column, ok := s[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		return fallback
	}
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
