package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, "/x", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOrigin(t *testing.T) {
	w := request([]string{"https://ops.example/"}, http.MethodGet, "https://ops.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ops.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestPreflight(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, request([]string{"https://ops.example"}, http.MethodOptions, "https://ops.example").Code)
	assert.Equal(t, http.StatusForbidden, request([]string{"https://ops.example"}, http.MethodOptions, "https://evil.example").Code)
}

func TestAllowAllWithoutOrigin(t *testing.T) {
	w := request(nil, http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
