package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.IndentedJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.IndentedJSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs err and exposes it to the client as details.
// Callers must only pass errors that carry no credentials.
func respondInternalError(c *gin.Context, logger zerolog.Logger, message string, err error) {
	logger.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	c.IndentedJSON(http.StatusInternalServerError, ErrorResponse{Error: message, Details: err.Error()})
}

func respondError(c *gin.Context, status int, message string) {
	c.IndentedJSON(status, ErrorResponse{Error: message})
}

// parseLimit reads a positive integer query parameter, falling back to def
// when absent and clamping to max.
func parseLimit(c *gin.Context, name string, def, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return min(n, max), true
}
