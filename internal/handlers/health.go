package handlers

import (
	"net/http"
	"time"

	"github.com/nahidhasan98/svn-notifier/internal/models"
)

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := &models.HealthResponse{
		Status:            "ok",
		WebhookConfigured: h.notifier.WebhookConfigured(),
		Timestamp:         time.Now().Unix(),
	}

	status := http.StatusOK
	if !response.WebhookConfigured {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, response, status)
}
