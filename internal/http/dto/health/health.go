// Package health contiene DTOs para los health checks.
package health

import "time"

// ComponentStatus es el estado de un componente individual.
type ComponentStatus struct {
	Status string `json:"status"` // "ok" | "down"
	Detail string `json:"detail,omitempty"`
}

// ReadyResponse es la respuesta de GET /readyz.
type ReadyResponse struct {
	Status     string                     `json:"status"` // "ready" | "unavailable"
	Components map[string]ComponentStatus `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// LiveResponse es la respuesta de GET /healthz.
type LiveResponse struct {
	Status string `json:"status"` // siempre "ok"
}
