// Package webhook posts JSON payloads to the chat webhook.
package webhook

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nahidhasan98/svn-notifier/internal/errors"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/models"
)

// InvalidJSONResponse is the body the webhook answers with when it could not
// parse the payload.
const InvalidJSONResponse = "Payload was not valid JSON"

// maxResponseBody bounds how much of an error response is read and logged
const maxResponseBody = 64 << 10

// OutcomeKind classifies a delivery attempt
type OutcomeKind int

const (
	Delivered OutcomeKind = iota
	Rejected
	TransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case TransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of PostPayload. Status and Body are set for
// Delivered and Rejected, Err for TransportError.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	Body   string
	Err    error
}

// Delivered reports whether the webhook accepted the payload
func (o Outcome) Delivered() bool {
	return o.Kind == Delivered
}

// AppError converts a failed outcome into an application error. It returns
// nil for delivered outcomes.
func (o Outcome) AppError() *errors.AppError {
	switch o.Kind {
	case Delivered:
		return nil
	case Rejected:
		return errors.RemoteRejected(o.Status, o.Body)
	default:
		return errors.TransportFailed(o.Err)
	}
}

// Options configures the HTTP transport
type Options struct {
	Timeout time.Duration

	// Accepted TLS range. Legacy webhook endpoints may still only speak
	// TLS 1.0 or 1.1.
	MinTLSVersion uint16
	MaxTLSVersion uint16

	// RootCAs overrides the system pool, mainly for tests and self-hosted
	// endpoints.
	RootCAs *x509.CertPool
}

// Client delivers payloads to a webhook
type Client struct {
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a client with its own transport
func New(opts Options, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
				TLSClientConfig: &tls.Config{
					MinVersion: opts.MinTLSVersion,
					MaxVersion: opts.MaxTLSVersion,
					RootCAs:    opts.RootCAs,
				},
			},
		},
		log: log,
	}
}

// PostPayload sends body to url as JSON. It never retries.
func (c *Client) PostPayload(ctx context.Context, url, body string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		c.log.Error("Failed to create webhook request", err)
		return Outcome{Kind: TransportError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Failed to send notification", err)
		return Outcome{Kind: TransportError, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.log.Warnf("Failed to read webhook response body: %v", err)
	}
	result := string(respBody)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.With("status", resp.StatusCode).
			Errorf("Failed to send notification: %d => %s", resp.StatusCode, result)
		if result == InvalidJSONResponse {
			c.log.With("parses_locally", json.Valid([]byte(body))).
				Errorf("payload = %s", body)
		}
		return Outcome{Kind: Rejected, Status: resp.StatusCode, Body: result}
	}

	c.log.Debugf("Webhook accepted notification with status %d", resp.StatusCode)
	return Outcome{Kind: Delivered, Status: resp.StatusCode, Body: result}
}

// DecodeMarkdown extracts the markdown field from a payload built for the
// webhook.
func DecodeMarkdown(body string) (string, error) {
	var msg models.MarkdownMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return "", err
	}
	return msg.Markdown, nil
}
