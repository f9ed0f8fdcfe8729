package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
	"github.com/nahidhasan98/svn-notifier/internal/payload"
	"github.com/nahidhasan98/svn-notifier/internal/webhook"
)

type fakeProvider struct {
	meta  models.CommitMetadata
	calls int32
}

func (f *fakeProvider) FetchMetadata(_ context.Context, _, _ string) models.CommitMetadata {
	atomic.AddInt32(&f.calls, 1)
	return f.meta
}

type panickingBuilder struct{}

func (panickingBuilder) Build(context.Context, models.Notification) (models.SanitizedCommit, bool) {
	panic("svnlook exploded")
}

type hook struct {
	server   *httptest.Server
	requests int32
	lastBody atomic.Value
}

func newHook(t *testing.T, status int, response string) *hook {
	t.Helper()
	h := &hook{}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		b, _ := io.ReadAll(r.Body)
		h.lastBody.Store(string(b))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(h.server.Close)
	return h
}

type fixture struct {
	notifier *Notifier
	provider *fakeProvider
	logs     *bytes.Buffer
	finished *int32
}

func newFixture(t *testing.T, url string, meta models.CommitMetadata) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	log := logger.NewWithWriter(logs, "debug", "json")
	provider := &fakeProvider{meta: meta}
	client := webhook.New(webhook.Options{
		Timeout:       5 * time.Second,
		MinTLSVersion: tls.VersionTLS10,
		MaxTLSVersion: tls.VersionTLS12,
	}, log)

	n := New(url, payload.New(provider), client, log)
	var finished int32
	n.OnFinished(func() { atomic.AddInt32(&finished, 1) })

	return fixture{notifier: n, provider: provider, logs: logs, finished: &finished}
}

func notification() models.Notification {
	return models.Notification{
		RepositoryName: "myrepo",
		RepositoryURL:  "https://svn.example.com/svn/myrepo",
		RepositoryPath: "/srv/svn/myrepo",
		Revision:       "42",
	}
}

var relevant = models.CommitMetadata{
	Author:  "alice\n",
	Message: "He said \"hi\"\r\n",
	Changed: "U   /myrepo/trunk/file.txt\n",
}

func errorLines(buf *bytes.Buffer) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"level":"error"`) {
			out = append(out, line)
		}
	}
	return out
}

func TestPostDelivers(t *testing.T) {
	h := newHook(t, http.StatusOK, "ok")
	f := newFixture(t, h.server.URL, relevant)

	result := f.notifier.Notify(context.Background(), notification())

	assert.Equal(t, StatusDelivered, result.Status)
	assert.Nil(t, result.Err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.requests))
	assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))

	body := h.lastBody.Load().(string)
	assert.Equal(t, result.Commit.Payload, body)
	markdown, err := webhook.DecodeMarkdown(body)
	require.NoError(t, err)
	assert.Contains(t, markdown, `He said "hi"`)
	assert.Contains(t, markdown, "https://svn.example.com/!/#myrepo/commit/r42")
	assert.Empty(t, errorLines(f.logs))
}

func TestPostReturnsBoolean(t *testing.T) {
	h := newHook(t, http.StatusOK, "ok")
	f := newFixture(t, h.server.URL, relevant)

	assert.True(t, f.notifier.Post(context.Background(), notification()))
}

func TestPostRejectsMissingConfiguration(t *testing.T) {
	cases := map[string]string{
		"unset":       "",
		"placeholder": config.PlaceholderWebhookURL,
	}

	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, url, relevant)

			result := f.notifier.Notify(context.Background(), notification())

			assert.Equal(t, StatusFailed, result.Status)
			require.NotNil(t, result.Err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, result.Err.Code)
			assert.Equal(t, int32(0), atomic.LoadInt32(&f.provider.calls))
			assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))
			assert.Len(t, errorLines(f.logs), 1)
			assert.False(t, f.notifier.WebhookConfigured())
		})
	}
}

func TestPostRejectsMissingInput(t *testing.T) {
	h := newHook(t, http.StatusOK, "ok")

	noPath := notification()
	noPath.RepositoryPath = ""
	noRevision := notification()
	noRevision.Revision = ""

	for _, n := range []models.Notification{noPath, noRevision} {
		f := newFixture(t, h.server.URL, relevant)

		assert.False(t, f.notifier.Post(context.Background(), n))
		assert.Equal(t, int32(0), atomic.LoadInt32(&f.provider.calls))
		assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))
		assert.Len(t, errorLines(f.logs), 1)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.requests))
}

func TestPostSkipsUnrelatedCommit(t *testing.T) {
	h := newHook(t, http.StatusOK, "ok")
	f := newFixture(t, h.server.URL, models.CommitMetadata{
		Author:  "bob",
		Message: "elsewhere",
		Changed: "U   /otherrepo/file.txt",
	})

	result := f.notifier.Notify(context.Background(), notification())

	assert.Equal(t, StatusSkipped, result.Status)
	assert.Equal(t, errors.ErrCodeCommitSkipped, result.Err.Code)
	assert.False(t, result.Delivered())
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.requests))
	assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))
	assert.Empty(t, errorLines(f.logs))

	assert.False(t, f.notifier.Post(context.Background(), notification()))
}

func TestPostInvalidJSONRejection(t *testing.T) {
	h := newHook(t, http.StatusBadRequest, webhook.InvalidJSONResponse)
	f := newFixture(t, h.server.URL, relevant)

	ok := f.notifier.Post(context.Background(), notification())

	assert.False(t, ok)
	errs := errorLines(f.logs)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "400 => Payload was not valid JSON")
	assert.Contains(t, errs[1], "payload = ")
	assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))
}

func TestPostTransportFailure(t *testing.T) {
	h := newHook(t, http.StatusOK, "ok")
	url := h.server.URL
	h.server.Close()
	f := newFixture(t, url, relevant)

	result := f.notifier.Notify(context.Background(), notification())

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, errors.ErrCodeTransportFailed, result.Err.Code)
	assert.NotEmpty(t, result.Commit.Payload)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.finished))
}

func TestPostRecoversFromPanics(t *testing.T) {
	var logs bytes.Buffer
	n := New("https://chat.example.com/hook", panickingBuilder{}, nil, logger.NewWithWriter(&logs, "info", "json"))
	var finished int32
	n.OnFinished(func() { atomic.AddInt32(&finished, 1) })

	result := n.Notify(context.Background(), notification())

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, errors.ErrCodeInternalError, result.Err.Code)
	assert.Equal(t, int32(1), finished)
	assert.Contains(t, logs.String(), "svnlook exploded")
}

func TestOnFinishedListenersRunInOrder(t *testing.T) {
	f := newFixture(t, "", relevant)
	var order []int
	f.notifier.OnFinished(func() { order = append(order, 1) })
	f.notifier.OnFinished(func() { order = append(order, 2) })

	f.notifier.Post(context.Background(), notification())
	f.notifier.Post(context.Background(), notification())

	assert.Equal(t, []int{1, 2, 1, 2}, order)
	assert.Equal(t, int32(2), atomic.LoadInt32(f.finished))
}

func TestPreview(t *testing.T) {
	f := newFixture(t, "", relevant)

	commit, appErr := f.notifier.Preview(context.Background(), notification())

	assert.Nil(t, appErr)
	assert.Equal(t, `He said \"hi\"`, commit.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.finished))

	n := notification()
	n.RepositoryName = "otherrepo"
	_, appErr = f.notifier.Preview(context.Background(), n)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeCommitSkipped, appErr.Code)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "delivered", StatusDelivered.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
