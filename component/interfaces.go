package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusStopped   HealthStatus = "stopped"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed resource.
type Component interface {
	// Name returns the unique registration name.
	Name() string

	// Start acquires the resource.
	Start(ctx context.Context) error

	// Stop releases the resource.
	Stop(ctx context.Context) error

	// Health reports the current state of the resource.
	Health(ctx context.Context) Health
}
