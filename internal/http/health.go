package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

type HealthController struct {
	version string
	now     func() time.Time
}

func NewHealthController(version string) *HealthController {
	return &HealthController{
		version: version,
		now:     time.Now,
	}
}

// Status always answers 200; it reports liveness only.
func (h *HealthController) Status(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   h.version,
	})
}

func (h *HealthController) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
