package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ollamaSettings is the mutable slice of the AI configuration. The
// completion factory reads it through the getter funcs on every call,
// so updates take effect without a restart.
type ollamaSettings struct {
	mu      sync.RWMutex
	baseURL string
	model   string
}

var settings ollamaSettings

// InitRuntimeConfig seeds the runtime settings from the env config.
func InitRuntimeConfig(baseURL, model string) {
	settings.mu.Lock()
	defer settings.mu.Unlock()
	settings.baseURL = baseURL
	settings.model = model
}

// GetRuntimeOllamaBaseURL returns the Ollama base URL currently in effect.
func GetRuntimeOllamaBaseURL() string {
	settings.mu.RLock()
	defer settings.mu.RUnlock()
	return settings.baseURL
}

// GetRuntimeOllamaModel returns the Ollama model currently in effect.
func GetRuntimeOllamaModel() string {
	settings.mu.RLock()
	defer settings.mu.RUnlock()
	return settings.model
}

type updateOllamaRequest struct {
	BaseURL string `json:"ollama_base_url" binding:"required"`
	Model   string `json:"ollama_model,omitempty"`
}

// GetOllamaSettings handles GET /api/settings/ollama.
func GetOllamaSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ollama_base_url": GetRuntimeOllamaBaseURL(),
		"ollama_model":    GetRuntimeOllamaModel(),
	})
}

// UpdateOllamaSettings handles PUT /api/settings/ollama. An empty model
// keeps the one already configured.
func UpdateOllamaSettings(c *gin.Context) {
	var req updateOllamaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings.mu.Lock()
	settings.baseURL = req.BaseURL
	if req.Model != "" {
		settings.model = req.Model
	}
	settings.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ollama settings updated successfully",
		"ollama_base_url": GetRuntimeOllamaBaseURL(),
		"ollama_model":    GetRuntimeOllamaModel(),
	})
}

// TestOllamaConnection handles POST /api/settings/ollama/test. It probes
// the tags endpoint of the requested server, or of the configured one
// when the request body names none.
func TestOllamaConnection(c *gin.Context) {
	var req struct {
		BaseURL string `json:"ollama_base_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.BaseURL == "" {
		req.BaseURL = GetRuntimeOllamaBaseURL()
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(req.BaseURL + "/api/tags")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.BaseURL,
	})
}
