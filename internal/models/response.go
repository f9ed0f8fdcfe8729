package models

// HealthResponse represents the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	WebhookConfigured bool   `json:"webhook_configured"`
	Timestamp         int64  `json:"timestamp"`
}

// NotifyResponse represents the response after a notification attempt
type NotifyResponse struct {
	Status    string `json:"status"`
	Revision  string `json:"revision"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
