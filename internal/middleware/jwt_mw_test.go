package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fixedToken string

func (f fixedToken) Validate(token string) bool { return token == string(f) }

func newGuardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/admin", AdminAuthMiddleware(fixedToken("good")), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAdminAuthMiddleware(t *testing.T) {
	r := newGuardedRouter()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer bad", http.StatusUnauthorized},
		{"good token", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := newGuardedRouter()
	req := httptest.NewRequest(http.MethodOptions, "/admin", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
