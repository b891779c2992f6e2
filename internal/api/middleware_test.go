package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"travel-crm/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		SendSuccess(c, http.StatusOK, []string{"a", "b"}, NewMeta(c, 2))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get("X-Request-ID")
		assert.NotEmpty(t, id)
		assert.Contains(t, w.Body.String(), `"request_id":"`+id+`"`)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})

	t.Run("keeps caller id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "empty", raw: "", expected: ""},
		{name: "no identifiers", raw: "source=a&target=b", expected: "source=a&target=b"},
		{name: "identifiers masked", raw: "email=ani%40example.com&partner_id=p1&phone=0812", expected: "email=%5Bredacted%5D&partner_id=p1&phone=%5Bredacted%5D"},
		{name: "name masked", raw: "name=Budi", expected: "name=%5Bredacted%5D"},
		{name: "malformed", raw: "email=%zz", expected: "[unparseable]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redactQuery(tt.raw))
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("preflight short-circuits", func(t *testing.T) {
		router := gin.New()
		router.Use(CORSMiddleware(config.CORSConfig{AllowAll: true}))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("configured origin with credentials", func(t *testing.T) {
		router := gin.New()
		router.Use(CORSMiddleware(config.CORSConfig{FrontendURL: "https://partners.example.com"}))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://partners.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}
