package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"workshop-web/internal/session"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

type responseType int

const (
	responseJSON responseType = iota
	responseBlob
)

// Client is the single choke point for backend calls.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	store          session.Store
	logger         *logrus.Logger
	onUnauthorized func(ctx context.Context)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUnauthorizedHook registers a callback fired after the session has
// been cleared because of a 401.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

func New(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStore returns a copy of the client bound to another session.
func (c *Client) WithStore(store session.Store) *Client {
	clone := *c
	clone.store = store
	return &clone
}

// Request issues a JSON call and returns the decoded envelope. success:false
// envelopes are returned as-is; only transport and auth failures are errors.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	resp, data, err := c.do(ctx, method, path, body, responseJSON)
	if err != nil {
		return nil, err
	}

	env := &Envelope{Status: resp.StatusCode}
	decodeErr := json.Unmarshal(data, env)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return nil, &RequestError{Message: "invalid response from server", Status: resp.StatusCode, Err: decodeErr}
		}
		return env, nil
	}

	if decodeErr == nil && !env.Success && env.Message != "" {
		return env, nil
	}
	return nil, &RequestError{Message: statusMessage(resp, data), Status: resp.StatusCode}
}

// Download issues the same request but reads the response as a binary blob.
func (c *Client) Download(ctx context.Context, method, path string, body interface{}) (*Blob, error) {
	resp, data, err := c.do(ctx, method, path, body, responseBlob)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env Envelope
		if json.Unmarshal(data, &env) == nil && env.Message != "" {
			return nil, &BusinessError{Message: env.Message, Status: resp.StatusCode}
		}
		return nil, &RequestError{Message: statusMessage(resp, data), Status: resp.StatusCode}
	}

	return &Blob{
		Data:               data,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, rt responseType) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, &RequestError{Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, nil, &RequestError{Message: "failed to build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rt == responseJSON {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "*/*")
	}

	if c.store != nil {
		token, err := c.store.GetToken(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to read session token, sending request anonymously")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &RequestError{Message: "network error", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &RequestError{Message: "failed to read response", Status: 0, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession(ctx, method, path)
		return nil, nil, &RequestError{Message: "unauthorized", Status: http.StatusUnauthorized, Err: ErrUnauthorized}
	}

	return resp, data, nil
}

// invalidateSession applies the global 401 policy. It runs on a detached
// context so a cancelled request still logs the user out.
func (c *Client) invalidateSession(ctx context.Context, method, path string) {
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Info("Backend rejected session, logging out")

	if c.store != nil {
		if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
			c.logger.WithError(err).Error("Failed to clear session after 401")
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func statusMessage(resp *http.Response, data []byte) string {
	text := strings.TrimSpace(string(data))
	if text == "" || len(text) > 200 || strings.HasPrefix(text, "<") {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// IsUnauthorized is a shorthand for errors.Is(err, ErrUnauthorized).
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
