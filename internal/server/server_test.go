package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/handlers"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/notifier"
)

const apiKey = "relay-test-key-123"

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, models.Notification) notifier.Result {
	return notifier.Result{Status: notifier.StatusDelivered}
}

func (stubNotifier) WebhookConfigured() bool { return true }

func newServer() *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               0,
			ReadTimeout:        time.Second,
			WriteTimeout:       time.Second,
			RateLimitPerMinute: 100,
		},
		Security: config.SecurityConfig{APIKeys: []string{apiKey}},
	}
	h := handlers.New(stubNotifier{}, cfg.Repository, logger.Nop())
	return New(cfg, h, logger.Nop())
}

func TestRoutes(t *testing.T) {
	ts := httptest.NewServer(newServer().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/notify", strings.NewReader(`{"repository_path":"/srv/svn/a","revision":"1"}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/notify", strings.NewReader(`{"repository_path":"/srv/svn/a","revision":"1"}`))
	req.Header.Set("X-API-Key", apiKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/notify", nil)
	req.Header.Set("X-API-Key", apiKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStartAndShutdown(t *testing.T) {
	s := newServer()
	errc := make(chan error, 1)

	require.NoError(t, s.Start(errc))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errc:
		t.Fatalf("unexpected server error: %v", err)
	default:
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, newServer().Shutdown(context.Background()))
}
