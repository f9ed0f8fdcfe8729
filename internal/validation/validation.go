package validation

import (
	"regexp"
	"strings"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/models"
)

// Subversion revisions are plain non-negative integers
var revisionPattern = regexp.MustCompile(`^\d+$`)

// Validator provides validation methods
type Validator struct{}

// New creates a new validator instance
func New() *Validator {
	return &Validator{}
}

// ValidateWebhookURL checks the configured webhook URL before any I/O
func (v *Validator) ValidateWebhookURL(url string) *errors.AppError {
	if strings.TrimSpace(url) == "" {
		return errors.ConfigInvalid("Missing webhook URL")
	}

	if url == config.PlaceholderWebhookURL {
		return errors.ConfigInvalid("Found default webhook URL in config. Ensure you've replaced it with your own.")
	}

	return nil
}

// ValidateNotification checks the fields svnlook needs
func (v *Validator) ValidateNotification(n *models.Notification) *errors.AppError {
	if n == nil {
		return errors.InvalidRequest("Notification is required")
	}

	if n.RepositoryPath == "" {
		return errors.ValidationError("Missing repo path")
	}

	if n.Revision == "" {
		return errors.ValidationError("Missing revision number")
	}

	return nil
}

// ValidateNotifyRequest validates a relay request. It is stricter than
// ValidateNotification because the values come from the network and end up
// on an svnlook command line.
func (v *Validator) ValidateNotifyRequest(req *models.NotifyRequest) *errors.AppError {
	if req == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if strings.TrimSpace(req.RepositoryPath) == "" {
		return errors.ValidationError("'repository_path' field is required")
	}

	if strings.HasPrefix(req.RepositoryPath, "-") {
		return errors.ValidationError("'repository_path' must not start with '-'")
	}

	if strings.TrimSpace(req.Revision) == "" {
		return errors.ValidationError("'revision' field is required")
	}

	if !v.IsValidRevision(req.Revision) {
		return errors.ValidationError("'revision' must be a revision number")
	}

	return nil
}

// IsValidRevision checks if a revision is a Subversion revision number
func (v *Validator) IsValidRevision(rev string) bool {
	return revisionPattern.MatchString(strings.TrimSpace(rev))
}

// NormalizeRevision strips whitespace and a leading "r" ("r42" -> "42")
func (v *Validator) NormalizeRevision(rev string) string {
	rev = strings.TrimSpace(rev)
	if trimmed := strings.TrimPrefix(strings.TrimPrefix(rev, "r"), "R"); v.IsValidRevision(trimmed) {
		return trimmed
	}
	return rev
}
