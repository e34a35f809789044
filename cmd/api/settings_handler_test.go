package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nalgeon/be"
)

func TestOllamaSettingsRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitRuntimeConfig("http://localhost:11434", "llama3")

	r := gin.New()
	r.GET("/settings/ollama", GetOllamaSettings)
	r.PUT("/settings/ollama", UpdateOllamaSettings)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/settings/ollama", strings.NewReader(`{"ollama_base_url": "http://ollama:11434"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	be.Equal(t, w.Code, http.StatusOK)
	be.Equal(t, GetRuntimeOllamaBaseURL(), "http://ollama:11434")
	// an update without a model keeps the configured one
	be.Equal(t, GetRuntimeOllamaModel(), "llama3")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings/ollama", nil))
	be.Equal(t, w.Code, http.StatusOK)
	be.True(t, strings.Contains(w.Body.String(), "http://ollama:11434"))
}

func TestUpdateOllamaSettingsRequiresBaseURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/settings/ollama", UpdateOllamaSettings)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/settings/ollama", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	be.Equal(t, w.Code, http.StatusBadRequest)
}
