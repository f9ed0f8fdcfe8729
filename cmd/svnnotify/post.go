package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/notifier"
	"github.com/nahidhasan98/svn-notifier/internal/webhook"
)

// PostCommand announces a single revision. VisualSVN and svnserve hooks pass
// the repository path and revision as the first two arguments.
type PostCommand struct {
	Name    string `long:"name" description:"repository name the changed paths must mention (default: $REPOSITORY_NAME)" value-name:"NAME"`
	URL     string `long:"url" description:"repository web URL (default: $REPOSITORY_URL)" value-name:"URL"`
	Channel string `long:"channel" description:"destination channel (default: $CHANNEL)" value-name:"CHANNEL"`
	DryRun  bool   `long:"dry-run" description:"print the payload instead of posting it"`

	Args struct {
		RepositoryPath string `positional-arg-name:"REPOS-PATH"`
		Revision       string `positional-arg-name:"REV"`
	} `positional-args:"yes"`

	stdout io.Writer
}

// Execute implements flags.Commander
func (c *PostCommand) Execute(args []string) error {
	a, err := initialize(SVNNotify.LogFile)
	if err != nil {
		return err
	}
	defer a.closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.run(ctx, a)
}

func (c *PostCommand) run(ctx context.Context, a *app) error {
	n := c.notification(a)

	if c.DryRun {
		return c.preview(ctx, a, n)
	}

	result := a.notifier.Notify(ctx, n)
	switch result.Status {
	case notifier.StatusDelivered, notifier.StatusSkipped:
		return nil
	default:
		if result.Err == nil {
			return fmt.Errorf("notification for r%s failed", n.Revision)
		}
		return result.Err
	}
}

func (c *PostCommand) notification(a *app) models.Notification {
	n := models.Notification{
		RepositoryName: c.Name,
		RepositoryURL:  c.URL,
		RepositoryPath: c.Args.RepositoryPath,
		Revision:       c.Args.Revision,
		Channel:        c.Channel,
	}
	if n.RepositoryName == "" {
		n.RepositoryName = a.cfg.Repository.Name
	}
	if n.RepositoryURL == "" {
		n.RepositoryURL = a.cfg.Repository.URL
	}
	if n.Channel == "" {
		n.Channel = a.cfg.Repository.Channel
	}
	return n
}

func (c *PostCommand) preview(ctx context.Context, a *app, n models.Notification) error {
	out := c.stdout
	if out == nil {
		out = os.Stdout
	}

	commit, appErr := a.notifier.Preview(ctx, n)
	if appErr != nil {
		if errors.HasCode(appErr, errors.ErrCodeCommitSkipped) {
			fmt.Fprintln(out, appErr.Message)
			return nil
		}
		return appErr
	}

	markdown, err := webhook.DecodeMarkdown(commit.Payload)
	if err != nil {
		a.log.Error("Payload is not valid JSON", err)
	}

	fmt.Fprintln(out, commit.Payload)
	fmt.Fprintln(out)
	fmt.Fprintln(out, markdown)
	return nil
}
