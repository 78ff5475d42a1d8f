package api

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid or expired token"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Timestamp string            `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string            `json:"version" example:"1.0.0"`
	Uptime    string            `json:"uptime" example:"1h30m"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Timestamp string             `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Uptime    string             `json:"uptime" example:"1h30m"`
	Metrics   map[string]float64 `json:"metrics"`
}
