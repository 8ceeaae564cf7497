package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("payables", "/payables")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/payables/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("payables", "/payables")
		assert.Equal(t, "payables", g.Name())
		assert.Equal(t, "/payables", g.Prefix())
	})

	t.Run("registers routes for each verb", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payables", "/payables")
		echo := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g.GET("/invoices", echo)
		g.POST("/invoices", echo)
		g.PUT("/invoices/:id/terms", echo)
		g.DELETE("/invoices/:id/lines/:line", echo)

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		cases := []struct {
			method string
			path   string
		}{
			{"GET", "/api/v1/payables/invoices"},
			{"POST", "/api/v1/payables/invoices"},
			{"PUT", "/api/v1/payables/invoices/42/terms"},
			{"DELETE", "/api/v1/payables/invoices/42/lines/1"},
		}
		for _, tc := range cases {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payables", "/payables")
		g.Use(func(c *gin.Context) {
			c.Header("X-Domain", g.Name())
			c.Next()
		})
		g.GET("/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/payables/invoices", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "payables", w.Header().Get("X-Domain"))
	})
}
