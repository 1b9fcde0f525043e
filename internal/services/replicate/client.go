package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/services"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 4
	defaultPollInterval   = 2 * time.Second
	preferWaitHeader      = "wait=60"
)

// Config captures the runtime settings required to talk to the generation
// service.
type Config struct {
	APIToken            string
	BaseURL             string
	ImageModel          string
	VideoModel          string
	TimeoutSeconds      int
	PollIntervalSeconds int
}

// Client wraps the Replicate predictions API for the image and video models.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	pollInterval     time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithPollInterval overrides the prediction poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithSleeper overrides how retry and poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a Replicate client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	pollInterval := defaultPollInterval
	if cfg.PollIntervalSeconds > 0 {
		pollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIToken:            strings.TrimSpace(cfg.APIToken),
			BaseURL:             strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			ImageModel:          strings.TrimSpace(cfg.ImageModel),
			VideoModel:          strings.TrimSpace(cfg.VideoModel),
			TimeoutSeconds:      cfg.TimeoutSeconds,
			PollIntervalSeconds: cfg.PollIntervalSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		pollInterval:     pollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.replicate.com/v1"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// FromConfig builds a client from application configuration.
func FromConfig(cfg *config.Config, opts ...Option) *Client {
	return NewClient(Config{
		APIToken:            cfg.Replicate.APIToken,
		BaseURL:             cfg.Replicate.BaseURL,
		ImageModel:          cfg.Replicate.ImageModel,
		VideoModel:          cfg.Replicate.VideoModel,
		TimeoutSeconds:      cfg.Replicate.TimeoutSeconds,
		PollIntervalSeconds: cfg.Replicate.PollIntervalSeconds,
	}, opts...)
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (p prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	default:
		return false
	}
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("replicate request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// run creates a prediction for the model and blocks until it reaches a
// terminal state, returning the raw output payload.
func (c *Client) run(ctx context.Context, model string, input map[string]any, op string) (json.RawMessage, error) {
	if c.cfg.APIToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "replicate", op,
			"API token is not configured (set REPLICATE_API_TOKEN)", nil)
	}
	if strings.TrimSpace(model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "replicate", op, "model identifier required", nil)
	}

	endpoint := fmt.Sprintf("%s/models/%s/predictions", c.cfg.BaseURL, model)
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "replicate", op, "encode request", err)
	}

	pred, err := c.requestWithRetry(ctx, http.MethodPost, endpoint, body, op)
	if err != nil {
		return nil, err
	}

	for !pred.terminal() {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, services.Wrap(services.ErrCollaborator, "replicate", op, "poll interrupted", err)
		}
		pollURL := fmt.Sprintf("%s/predictions/%s", c.cfg.BaseURL, url.PathEscape(pred.ID))
		pred, err = c.requestWithRetry(ctx, http.MethodGet, pollURL, nil, op)
		if err != nil {
			return nil, err
		}
	}

	switch pred.Status {
	case "succeeded":
		if len(pred.Output) == 0 || string(pred.Output) == "null" {
			return nil, services.Wrap(services.ErrCollaborator, "replicate", op, "prediction succeeded with no output", nil)
		}
		return pred.Output, nil
	case "canceled":
		return nil, services.Wrap(services.ErrCollaborator, "replicate", op, "prediction canceled", nil)
	default:
		message := strings.TrimSpace(pred.Error)
		if message == "" {
			message = "prediction failed"
		}
		return nil, services.Wrap(services.ErrCollaborator, "replicate", op, message, nil)
	}
}

func (c *Client) requestWithRetry(ctx context.Context, method, endpoint string, body []byte, op string) (prediction, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		pred, err := c.sendOnce(ctx, method, endpoint, body)
		if err == nil {
			return pred, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return prediction{}, services.Wrap(services.ErrCollaborator, "replicate", op, "request failed", err)
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return prediction{}, services.Wrap(services.ErrCollaborator, "replicate", op, "request failed", sleepErr)
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return prediction{}, services.Wrap(services.ErrCollaborator, "replicate", op,
		fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (c *Client) sendOnce(ctx context.Context, method, endpoint string, body []byte) (prediction, error) {
	var pred prediction

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pred, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", preferWaitHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pred, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pred, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return pred, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(payload, &pred); err != nil {
		return pred, fmt.Errorf("decode response: %w", err)
	}
	return pred, nil
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
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

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// firstOutputURL extracts an asset URL from a prediction output, which the
// models return either as a bare string or as an array of strings.
func firstOutputURL(output json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			return "", errors.New("empty output value")
		}
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(output, &many); err == nil {
		for _, value := range many {
			if strings.TrimSpace(value) != "" {
				return value, nil
			}
		}
		return "", errors.New("empty output array")
	}

	return "", fmt.Errorf("unrecognized output shape: %s", summarizeSnippet(string(output)))
}

func summarizeSnippet(content string) string {
	trimmed := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(trimmed)
	if len(runes) > limit {
		trimmed = string(runes[:limit]) + "..."
	}
	if trimmed == "" {
		return "<empty>"
	}
	return trimmed
}
