package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/notifier"
	"github.com/nahidhasan98/svn-notifier/internal/validation"
)

// maxRequestBody bounds the size of a notify request
const maxRequestBody = 16 << 10

// Notifier is the part of notifier.Notifier the handlers need
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) notifier.Result
	WebhookConfigured() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	notifier  Notifier
	defaults  config.RepositoryConfig
	log       *logger.Logger
	validator *validation.Validator
}

// New creates a new handler instance. defaults fill in repository fields a
// request leaves empty.
func New(n Notifier, defaults config.RepositoryConfig, log *logger.Logger) *Handler {
	return &Handler{
		notifier:  n,
		defaults:  defaults,
		log:       log,
		validator: validation.New(),
	}
}

// Notify handles requests to announce a commit
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req models.NotifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	req.Revision = h.validator.NormalizeRevision(req.Revision)

	// Validate request
	if appErr := h.validator.ValidateNotifyRequest(&req); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	n := req.Notification()
	if n.RepositoryName == "" {
		n.RepositoryName = h.defaults.Name
	}
	if n.RepositoryURL == "" {
		n.RepositoryURL = h.defaults.URL
	}
	if n.Channel == "" {
		n.Channel = h.defaults.Channel
	}

	result := h.notifier.Notify(r.Context(), n)

	switch result.Status {
	case notifier.StatusDelivered, notifier.StatusSkipped:
		status := http.StatusOK
		if result.Status == notifier.StatusSkipped {
			status = http.StatusAccepted
		}
		h.writeJSON(w, &models.NotifyResponse{
			Status:    result.Status.String(),
			Revision:  n.Revision,
			Timestamp: time.Now().Unix(),
		}, status)
	default:
		appErr := result.Err
		if appErr == nil {
			appErr = errors.InternalError(nil)
		}
		h.writeAppError(w, appErr)
	}
}
