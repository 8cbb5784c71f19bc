package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// ProfileLabels tags the profiling samples taken while a request runs with
// its method and route template. Unmatched paths are left unlabeled to keep
// label cardinality bounded.
func ProfileLabels(enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		parent := c.Request
		pyroscope.TagWrapper(parent.Context(), pyroscope.Labels("http_method", parent.Method, "http_route", route), func(ctx context.Context) {
			c.Request = parent.WithContext(ctx)
			c.Next()
		})
		c.Request = parent
	}
}
