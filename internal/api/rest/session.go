package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}}
}

type sessionStatus struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Snapshots int    `json:"snapshots"`
	Error     string `json:"error,omitempty"`
}

// GET /health
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/v1/session
func (s *Server) getSession(c *gin.Context) {
	status := sessionStatus{
		ID:        s.src.ID(),
		State:     string(s.src.State()),
		Snapshots: len(s.src.History()),
	}
	if err := s.src.Err(); err != nil {
		status.Error = err.Error()
	}
	c.JSON(http.StatusOK, status)
}

// GET /api/v1/snapshots?limit=N
func (s *Server) listSnapshots(c *gin.Context) {
	history := s.src.History()

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse("SNAPSHOTS_400", "Invalid limit", raw))
			return
		}
		if limit < len(history) {
			history = history[len(history)-limit:]
		}
	}

	c.JSON(http.StatusOK, history)
}

// GET /api/v1/snapshots/latest
func (s *Server) getLatestSnapshot(c *gin.Context) {
	snap, ok := s.src.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse("SNAPSHOTS_404", "No snapshot recorded yet", nil))
		return
	}
	c.JSON(http.StatusOK, snap)
}
