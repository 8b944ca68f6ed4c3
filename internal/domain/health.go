package domain

// HealthStatus is the response for GET /healthz.
type HealthStatus struct {
	Status       string            `json:"status"` // ok, degraded
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
