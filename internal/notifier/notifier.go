// Package notifier runs one commit notification from svnlook to the chat
// webhook.
package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/validation"
	"github.com/nahidhasan98/svn-notifier/internal/webhook"
)

// PayloadBuilder builds the webhook body for a notification
type PayloadBuilder interface {
	Build(ctx context.Context, n models.Notification) (models.SanitizedCommit, bool)
}

// Poster delivers a body to a webhook
type Poster interface {
	PostPayload(ctx context.Context, url, body string) webhook.Outcome
}

// Status is the outcome of a notification attempt
type Status int

const (
	StatusFailed Status = iota
	StatusDelivered
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result describes a notification attempt. Err is nil only when delivered.
type Result struct {
	Status Status
	Commit models.SanitizedCommit
	Err    *errors.AppError
}

// Delivered reports whether the webhook accepted the notification
func (r Result) Delivered() bool {
	return r.Status == StatusDelivered
}

// Notifier posts commit notifications. It is safe for concurrent use.
type Notifier struct {
	webhookURL string
	builder    PayloadBuilder
	poster     Poster
	validator  *validation.Validator
	log        *logger.Logger

	mu        sync.RWMutex
	listeners []func()
}

// New creates a notifier posting to webhookURL
func New(webhookURL string, builder PayloadBuilder, poster Poster, log *logger.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		builder:    builder,
		poster:     poster,
		validator:  validation.New(),
		log:        log,
	}
}

// OnFinished registers fn to be called after every attempt, whatever its
// outcome. Listeners run synchronously, in registration order.
func (n *Notifier) OnFinished(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// WebhookConfigured reports whether a usable webhook URL is set
func (n *Notifier) WebhookConfigured() bool {
	return n.validator.ValidateWebhookURL(n.webhookURL) == nil
}

// Post runs the pipeline and reports whether the webhook accepted the
// notification. Skipped commits and every failure report false.
func (n *Notifier) Post(ctx context.Context, notification models.Notification) bool {
	return n.Notify(ctx, notification).Delivered()
}

// Notify runs the pipeline for one notification. Failures are logged and
// returned in the Result, never raised.
func (n *Notifier) Notify(ctx context.Context, notification models.Notification) (result Result) {
	log := n.log.With("revision", notification.Revision).With("repository", notification.RepositoryName)

	defer func() {
		if r := recover(); r != nil {
			err := errors.InternalError(fmt.Errorf("panic: %v", r))
			log.Error("Notification pipeline panicked", err)
			result = Result{Status: StatusFailed, Err: err}
		}
		n.finish()
	}()

	if appErr := n.validator.ValidateWebhookURL(n.webhookURL); appErr != nil {
		log.Error(appErr.Message, nil)
		return Result{Status: StatusFailed, Err: appErr}
	}

	if appErr := n.validator.ValidateNotification(&notification); appErr != nil {
		log.Error(appErr.Message, nil)
		return Result{Status: StatusFailed, Err: appErr}
	}

	commit, ok := n.builder.Build(ctx, notification)
	if !ok {
		log.Debug("Commit does not touch repository, nothing to post")
		return Result{Status: StatusSkipped, Err: errors.CommitSkipped(notification.RepositoryName, notification.Revision)}
	}

	outcome := n.poster.PostPayload(ctx, n.webhookURL, commit.Payload)
	if !outcome.Delivered() {
		return Result{Status: StatusFailed, Commit: commit, Err: outcome.AppError()}
	}

	log.Infof("Notification for r%s delivered", notification.Revision)
	return Result{Status: StatusDelivered, Commit: commit}
}

// Preview builds the payload without posting it and without firing
// OnFinished listeners.
func (n *Notifier) Preview(ctx context.Context, notification models.Notification) (models.SanitizedCommit, *errors.AppError) {
	if appErr := n.validator.ValidateNotification(&notification); appErr != nil {
		return models.SanitizedCommit{}, appErr
	}

	commit, ok := n.builder.Build(ctx, notification)
	if !ok {
		return models.SanitizedCommit{}, errors.CommitSkipped(notification.RepositoryName, notification.Revision)
	}
	return commit, nil
}

func (n *Notifier) finish() {
	n.mu.RLock()
	listeners := append([]func(){}, n.listeners...)
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}
