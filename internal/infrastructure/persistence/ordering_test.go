package persistence

import (
	"testing"

	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestSortColumns_OrderBy(t *testing.T) {
	tests := []struct {
		name   string
		filter shared.Filter
		want   string
	}{
		{"no key uses fallback", shared.Filter{}, "name ASC"},
		{"direction defaults to descending", shared.Filter{OrderBy: "hourly_rate"}, "hourly_rate DESC"},
		{"key maps to column", shared.Filter{OrderBy: "city", OrderDir: "ASC"}, "address_city ASC"},
		{"padding is ignored", shared.Filter{OrderBy: " name ", OrderDir: " asc "}, "name ASC"},
		{"unknown direction is descending", shared.Filter{OrderBy: "name", OrderDir: "sideways"}, "name DESC"},
		{"column names are not keys", shared.Filter{OrderBy: "address_city"}, "name ASC"},
		{"keys are case sensitive", shared.Filter{OrderBy: "NAME"}, "name ASC"},
		{"injection falls back", shared.Filter{OrderBy: "name; DROP TABLE invoices;--"}, "name ASC"},
		{"injected direction is dropped", shared.Filter{OrderBy: "name", OrderDir: "ASC; DROP TABLE invoices"}, "name DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, customerSort.orderBy(tt.filter, "name ASC"))
		})
	}
}
