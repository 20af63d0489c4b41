package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/shinji-kodama/notesync/internal/model"
)

// MaxResponseSize caps how much of a response body is read.
const MaxResponseSize = 8 << 20

// Config tunes the HTTP client used for external API calls.
type Config struct {
	// Timeout bounds an entire request, body read included.
	// A context deadline can still cut it shorter.
	Timeout time.Duration

	DialTimeout     time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration
}

// DefaultConfig returns the timeouts used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		DialTimeout:     5 * time.Second,
		TLSHandshake:    5 * time.Second,
		ResponseHeader:  15 * time.Second,
		IdleConnTimeout: 30 * time.Second,
	}
}

// New builds an *http.Client from cfg. Each sync run builds its own client;
// nothing is shared across runs.
func New(cfg Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
		IdleConnTimeout:       cfg.IdleConnTimeout,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
}

// Request describes one JSON API call relative to an API base URL.
type Request struct {
	Method string

	// Path is appended to the base URL and reported in errors.
	// It may carry a query string.
	Path string

	// Body is JSON-encoded when non-nil.
	Body any

	// Header holds extra headers such as authentication.
	Header http.Header
}

// Doer sends requests for one external system.
type Doer struct {
	// System names the remote system in TransportError messages.
	System string

	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Do sends req and decodes a successful JSON response into out (skipped
// when out is nil). A network failure or non-2xx status is returned as a
// *model.TransportError; there are no retries.
func (d *Doer) Do(ctx context.Context, req Request, out any) error {
	return d.DoURL(ctx, d.BaseURL+req.Path, req, out)
}

// DoURL is Do with an absolute URL, for following pagination links.
// req.Path is still used in error messages.
func (d *Doer) DoURL(ctx context.Context, url string, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%s: encoding %s %s request: %w", d.System, req.Method, req.Path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return fmt.Errorf("%s: building %s %s request: %w", d.System, req.Method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	d.logger().Debug("api request", "system", d.System, "method", req.Method, "path", req.Path)

	resp, err := d.httpClient().Do(httpReq)
	if err != nil {
		return &model.TransportError{System: d.System, Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return &model.TransportError{System: d.System, Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Err: err}
	}

	d.logger().Debug("api response", "system", d.System, "method", req.Method, "path", req.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.TransportError{
			System:     d.System,
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decoding %s %s response: %w", d.System, req.Method, req.Path, err)
	}
	return nil
}

func (d *Doer) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return http.DefaultClient
}

func (d *Doer) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
