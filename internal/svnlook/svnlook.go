// Package svnlook reads commit metadata from a Subversion repository by
// running the svnlook tool.
package svnlook

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
)

// CommitMetadataProvider returns author, log message and changed paths for a
// revision. Implementations never fail: whatever text is available is returned.
type CommitMetadataProvider interface {
	FetchMetadata(ctx context.Context, path, revision string) models.CommitMetadata
}

// Runner runs the svnlook tool with args and returns its output
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs a local svnlook executable
type ExecRunner struct {
	Path string
}

// NewExecRunner creates a runner for the executable at path
func NewExecRunner(path string) *ExecRunner {
	return &ExecRunner{Path: path}
}

// Run executes the tool. On failure the returned text is stdout if there was
// any, otherwise stderr, so callers always get something printable.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out := stdout.String()
		if out == "" {
			out = stderr.String()
		}
		return out, errors.Wrapf(err, "%s %s", r.Path, strings.Join(args, " "))
	}

	return stdout.String(), nil
}

// Inspector implements CommitMetadataProvider on top of a Runner
type Inspector struct {
	runner Runner
	log    *logger.Logger
}

// New creates an inspector
func New(runner Runner, log *logger.Logger) *Inspector {
	return &Inspector{
		runner: runner,
		log:    log,
	}
}

// FetchMetadata runs "log", "author" and "changed" for the revision, in that
// order.
func (i *Inspector) FetchMetadata(ctx context.Context, path, revision string) models.CommitMetadata {
	return models.CommitMetadata{
		Message: i.look(ctx, "log", path, revision),
		Author:  i.look(ctx, "author", path, revision),
		Changed: i.look(ctx, "changed", path, revision),
	}
}

func (i *Inspector) look(ctx context.Context, subcommand, path, revision string) string {
	out, err := i.runner.Run(ctx, subcommand, "-r", revision, path)
	if err != nil {
		i.log.With("subcommand", subcommand).
			With("revision", revision).
			Error("svnlook failed", err)
	}
	return out
}
