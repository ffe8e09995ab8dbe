package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("remote")

// maxBodyBytes caps how much of a response body is read.
var maxBodyBytes int64 = 64 << 20

// ErrBodyTooLarge is returned when a response body exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("response too large")

// StatusError reports a non-2xx response that is not an engine error payload.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Client implements dataset.Engine over the engine's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the engine rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the engine root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query runs a SQL statement against a dataset.
func (c *Client) Query(ctx context.Context, datasetID, sql string) (*dataset.Payload, error) {
	params := url.Values{}
	params.Set("id", datasetID)
	params.Set("query", sql)
	return c.get(ctx, "/query", params)
}

// Reset restores a dataset to its unmodified state.
func (c *Client) Reset(ctx context.Context, datasetID string) (*dataset.Payload, error) {
	params := url.Values{}
	params.Set("id", datasetID)
	return c.get(ctx, "/reset", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*dataset.Payload, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warningf("request %s %s failed: %v", requestID, path, err)
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBodyBytes {
		log.Warningf("request %s %s: body exceeds %d bytes", requestID, path, maxBodyBytes)
		return nil, fmt.Errorf("GET %s: %w: over %d bytes", path, ErrBodyTooLarge, maxBodyBytes)
	}

	payload, decodeErr := dataset.DecodePayload(body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case decodeErr == nil && (ok || payload.Error):
		log.Debugf("request %s %s: status=%d rows=%d error=%t in %s",
			requestID, path, resp.StatusCode, len(payload.Rows), payload.Error, time.Since(start))
		return payload, nil
	case !ok:
		log.Warningf("request %s %s: status %s", requestID, path, resp.Status)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	default:
		log.Warningf("request %s %s: %v", requestID, path, decodeErr)
		return nil, decodeErr
	}
}
