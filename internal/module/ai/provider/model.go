package provider

import "github.com/sony/gobreaker/v2"

// Upstream names, used as breaker names and metric labels.
const (
	UpstreamGemini       = "gemini"
	UpstreamRemoveBG     = "removebg"
	UpstreamPollinations = "pollinations"
)

// HealthStatus represents the health status of an upstream.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// statusFromState maps a breaker state to a health status.
func statusFromState(state gobreaker.State) HealthStatus {
	switch state {
	case gobreaker.StateOpen:
		return HealthStatusUnhealthy
	case gobreaker.StateHalfOpen:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}

// stateGauge maps a breaker state to the circuit state gauge value.
func stateGauge(state gobreaker.State) int {
	switch state {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}
