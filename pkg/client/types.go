package client

import "time"

// Status is the JSON document served at {base}/status and {base}/healthz.
type Status struct {
	Healthy bool   `json:"healthy"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	Running bool   `json:"running"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Token is the bearer token returned by {base}/login.
type Token struct {
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}
