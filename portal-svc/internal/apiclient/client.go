package apiclient

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

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// FallbackMessage is used when a failed response carries no readable message.
const FallbackMessage = "API request failed"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for the bound portal, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// APIError is a non-2xx backend response. Error() is exactly the backend message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Options struct {
	// Timeout bounds each attempt; zero leaves it to the transport.
	Timeout time.Duration
	// MaxRetries applies to transport errors and 5xx responses on
	// idempotent requests only. Zero never retries.
	MaxRetries   int
	RetryBackoff time.Duration
	// RateLimit is requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
	// Anonymous suppresses the bearer token.
	Anonymous bool
}

type Client struct {
	baseURL string
	http    HTTPClient
	tokens  TokenSource
	opts    Options
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func New(baseURL string, httpClient HTTPClient, tokens TokenSource, opts Options, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		opts:    opts,
		logger:  logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Do sends req and decodes the response into out, unwrapping the backend envelope.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var body []byte
	if req.Body != nil {
		var err error
		if body, err = json.Marshal(req.Body); err != nil {
			return fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
	}

	attempts := 1
	if retryable(req) {
		attempts += c.opts.MaxRetries
	}

	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
			}
		}

		status, payload, err := c.send(ctx, req, body)
		if (err != nil || status >= http.StatusInternalServerError) && attempt < attempts && ctx.Err() == nil {
			c.logger.Warn().Err(err).Int("status", status).Int("attempt", attempt).
				Str("path", req.Path).Msg("retrying backend request")
			if werr := c.wait(ctx, attempt); werr != nil {
				return fmt.Errorf("%s %s: %w", req.Method, req.Path, werr)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}
		if status < 200 || status >= 300 {
			return newAPIError(status, payload)
		}
		return decode(payload, out)
	}
}

func (c *Client) send(ctx context.Context, req Request, body []byte) (int, []byte, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return 0, nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if !req.Anonymous && c.tokens != nil {
		token, ok, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().Str("method", req.Method).Str("path", req.Path).
		Int("status", resp.StatusCode).Msg("backend request")
	return resp.StatusCode, payload, nil
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := c.opts.RetryBackoff * time.Duration(attempt)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(req Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return req.Header.Get(IdempotencyHeader) != ""
}

func newAPIError(status int, payload []byte) *APIError {
	var body struct {
		Message   string `json:"message"`
		Code      string `json:"code"`
		ErrorCode string `json:"errorCode"`
	}
	apiErr := &APIError{StatusCode: status, Message: FallbackMessage}
	if err := json.Unmarshal(payload, &body); err != nil {
		return apiErr
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}
	apiErr.Code = body.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = body.Code
	}
	return apiErr
}

// decode unwraps {success, message, data, ...} when present; other bodies decode as-is.
func decode(payload []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err == nil {
		if _, enveloped := fields["success"]; enveloped {
			data, ok := fields["data"]
			if !ok || string(data) == "null" {
				return nil
			}
			payload = data
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
