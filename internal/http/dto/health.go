package dto

import "time"

// HealthStatus estado de un componente.
type HealthStatus struct {
	Status string `json:"status"` // "ok" | "error"
	Error  string `json:"error,omitempty"`
}

// HealthResponse GET /readyz
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready" | "degraded" | "unavailable"
	Version    string                  `json:"version,omitempty"`
	Backend    string                  `json:"backend,omitempty"`
	Components map[string]HealthStatus `json:"components"`
	Timestamp  time.Time               `json:"timestamp"`
}
