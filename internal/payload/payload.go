// Package payload turns svnlook output into the markdown message posted to the
// chat webhook.
package payload

import (
	"context"
	"fmt"
	"strings"

	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/svnlook"
)

const (
	messageTemplate = "■-----<br>**From Tomey VisualSVN Server**  <br>*<%s> New commit by %s*<br>**r%s:** %s<br>%s<br>■-----"
	bodyTemplate    = `{ "markdown" : "%s" }`

	lineBreak = "<br>"
)

// Builder builds webhook payloads for notifications
type Builder struct {
	provider svnlook.CommitMetadataProvider
}

// New creates a builder reading commit metadata from provider
func New(provider svnlook.CommitMetadataProvider) *Builder {
	return &Builder{provider: provider}
}

// Build fetches the commit metadata for n and returns the sanitized commit
// with its payload. ok is false when the changed paths do not mention
// n.RepositoryName, in which case nothing should be posted. n is not modified.
func (b *Builder) Build(ctx context.Context, n models.Notification) (commit models.SanitizedCommit, ok bool) {
	n = n.WithMetadata(b.provider.FetchMetadata(ctx, n.RepositoryPath, n.Revision))

	if !IsRelevant(n) {
		return models.SanitizedCommit{}, false
	}

	commit = Sanitize(n)
	commit.Payload = Format(n, commit)

	return commit, true
}

// IsRelevant reports whether the changed-path listing mentions the repository.
// A single svnlook call may cover several repositories sharing one parent, so
// the name acts as a filter.
func IsRelevant(n models.Notification) bool {
	return strings.Contains(n.CommitChanged, n.RepositoryName)
}

// Sanitize escapes the commit fields of n so they can be placed inside a JSON
// string and rendered as markdown.
func Sanitize(n models.Notification) models.SanitizedCommit {
	message := strings.TrimRight(n.CommitMessage, "\r\n")
	author := strings.TrimRight(escape(n.CommitAuthor), "\r\n")

	return models.SanitizedCommit{
		Author:  escapeControl(author),
		Message: escapeControl(breakLines(escape(message))),
		Changed: escapeControl(breakLines(escape(n.CommitChanged))),
		Link:    CommitLink(n.RepositoryURL, n.Revision),
	}
}

// CommitLink turns a VisualSVN repository URL into a link to the revision.
// "https://host/svn/repo" becomes "https://host/!/#repo/commit/r42". Other
// URLs are returned unchanged.
func CommitLink(repositoryURL, revision string) string {
	if repositoryURL == "" || !strings.Contains(repositoryURL, "/svn/") {
		return repositoryURL
	}
	return strings.ReplaceAll(repositoryURL, "/svn/", "/!/#") + "/commit/r" + revision
}

// Format renders the JSON body for an already sanitized commit
func Format(n models.Notification, commit models.SanitizedCommit) string {
	target := commit.Link
	if target == "" {
		target = n.RepositoryName
	}

	markdown := fmt.Sprintf(messageTemplate,
		escapeControl(escape(target)),
		commit.Author,
		escapeControl(escape(n.Revision)),
		commit.Message,
		commit.Changed,
	)

	return fmt.Sprintf(bodyTemplate, markdown)
}

// escape backslash-escapes quotes. Backslashes are doubled first so text such
// as Windows paths cannot end the JSON string early.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// breakLines drops carriage returns and turns newlines into <br>
func breakLines(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", lineBreak)
}

// escapeControl writes the remaining control characters as \u escapes
func escapeControl(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}

	var sb strings.Builder
	for _, r := range s {
		if isControl(r) {
			fmt.Fprintf(&sb, `\u%04x`, r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isControl(r rune) bool {
	return r < 0x20
}
