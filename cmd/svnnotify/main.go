package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/notifier"
	"github.com/nahidhasan98/svn-notifier/internal/payload"
	"github.com/nahidhasan98/svn-notifier/internal/svnlook"
	"github.com/nahidhasan98/svn-notifier/internal/webhook"
)

// SVNNotifyCommand is the root command
type SVNNotifyCommand struct {
	LogFile string `long:"log-file" description:"append logs to this file instead of stdout" value-name:"PATH"`

	Post  PostCommand  `command:"post" description:"Announce one revision, as called from a post-commit hook"`
	Serve ServeCommand `command:"serve" description:"Run the HTTP relay that announces revisions on request"`
}

// SVNNotify holds the parsed command line
var SVNNotify SVNNotifyCommand

func main() {
	parser := flags.NewParser(&SVNNotify, flags.Default)
	parser.Name = "svnnotify"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// app bundles what every command needs
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	notifier *notifier.Notifier
	closeLog func() error
}

func initialize(logFile string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var out io.Writer = os.Stdout
	closeLog := func() error { return nil }
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeLog = f.Close
	}

	log := logger.NewWithWriter(out, cfg.Log.Level, cfg.Log.Format)

	inspector := svnlook.New(svnlook.NewExecRunner(cfg.SVNLook.Path), log)
	client := webhook.New(webhook.Options{
		Timeout:       cfg.Webhook.Timeout,
		MinTLSVersion: cfg.Webhook.MinTLSVersion,
		MaxTLSVersion: cfg.Webhook.MaxTLSVersion,
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		notifier: notifier.New(cfg.Webhook.URL, payload.New(inspector), client, log),
		closeLog: closeLog,
	}, nil
}
