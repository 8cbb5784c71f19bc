package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func profiledRouter(enabled bool, seen map[string]string) *gin.Engine {
	r := gin.New()
	r.Use(ProfileLabels(enabled))
	r.POST("/api/v1/invoices", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			seen[key] = value
			return true
		})
		c.Status(http.StatusCreated)
	})
	return r
}

func TestProfileLabels(t *testing.T) {
	t.Run("labels the matched route", func(t *testing.T) {
		seen := map[string]string{}
		w := httptest.NewRecorder()
		profiledRouter(true, seen).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, map[string]string{"http_method": "POST", "http_route": "/api/v1/invoices"}, seen)
	})

	t.Run("disabled", func(t *testing.T) {
		seen := map[string]string{}
		w := httptest.NewRecorder()
		profiledRouter(false, seen).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, seen)
	})
}
