// Package health exposes liveness, readiness, and detailed dependency
// checks for the gateway, probing the relational store, the shared
// Redis cache, and the in-process instance registry.
package health

import "time"

// Status values a dependency check can report.
const (
	// StatusOK means the dependency answered the probe.
	StatusOK = "ok"
	// StatusError means the probe failed; Check.Error carries the cause.
	StatusError = "error"
	// StatusDisabled means the dependency was never wired in.
	StatusDisabled = "disabled"
)

// Aggregate status values for the detailed endpoint.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Check is the outcome of probing one dependency.
type Check struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latencyMs,omitempty"`
	Error     string  `json:"error,omitempty"`
	Connected *int    `json:"connected,omitempty"`
	Total     *int    `json:"total,omitempty"`
}

// DetailedResponse is the payload of the detailed health endpoint.
type DetailedResponse struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Checks    map[string]Check `json:"checks"`
}

// Dependency names used as keys in check maps.
const (
	CheckDatabase  = "database"
	CheckCache     = "cache"
	CheckInstances = "instances"
)

// ok reports whether a check answered successfully.
func (c Check) ok() bool { return c.Status == StatusOK }
