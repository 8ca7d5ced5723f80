package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]check `json:"checks,omitempty"`
}

type check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleLive(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady checks the database and the vault.
func (s *Server) handleReady(c echo.Context) error {
	results := s.svc.HealthCheck()

	checks := make(map[string]check, len(results))
	healthy := true
	for name, err := range results {
		if err != nil {
			healthy = false
			checks[name] = check{Status: "error", Message: err.Error()}
			s.log.Warn("readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = check{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	return c.JSON(code, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
