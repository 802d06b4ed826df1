package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 3 * time.Second

var (
	// ErrMalformedResponse is returned when the body is not JSON.
	ErrMalformedResponse = errors.New("remote: malformed response")
	errNotFound          = errors.New("remote: not found")
)

// APIError is a response the backend produced but marked as failed, either
// with a non-2xx status or with success=false in the envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
}

// Client talks to the leagues backend (Content and Submission services).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do performs the request and unwraps the {success, data, error, message}
// envelope. Bodies without an envelope are returned whole.
func (c *Client) do(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("api request failed")
		return gjson.Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)})

	if resp.StatusCode == http.StatusNotFound {
		log.Debug("api response")
		return gjson.Result{}, errNotFound
	}
	if !gjson.ValidBytes(data) {
		log.Warn("api response is not JSON")
		if resp.StatusCode >= 300 {
			return gjson.Result{}, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		return gjson.Result{}, ErrMalformedResponse
	}

	doc := gjson.ParseBytes(data)
	if resp.StatusCode >= 300 || (doc.Get("success").Exists() && !doc.Get("success").Bool()) {
		msg := firstString(doc, "error", "message")
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		log.WithField("error", msg).Warn("api error response")
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	log.Debug("api response")

	if doc.Get("success").Exists() {
		return doc.Get("data"), nil
	}
	return doc, nil
}

func escape(id string) string { return url.PathEscape(id) }
