// Package webhook posts JSON payloads to operator-configured URLs.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/formflow-backend/internal/platform/envutil"
	"github.com/yungbote/formflow-backend/internal/platform/httpx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type Client interface {
	Post(ctx context.Context, req Request) (*Result, error)
}

type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	UserAgent      string

	HTTPClient *http.Client
}

func ConfigFromEnv() Config {
	return Config{
		Timeout:    envutil.Seconds("WEBHOOK_TIMEOUT_SECONDS", 10*time.Second),
		MaxRetries: envutil.Int("WEBHOOK_MAX_RETRIES", 2),
		UserAgent:  envutil.String("WEBHOOK_USER_AGENT", "formflow-webhook/1"),
	}
}

type Request struct {
	URL     string
	Headers map[string]string
	Body    any
}

type Result struct {
	StatusCode int
	Attempts   int
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("webhook http %d: %s", e.StatusCode, body)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type client struct {
	log *logger.Logger
	cfg Config
	hc  *http.Client
}

func New(log *logger.Logger, cfg Config) Client {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{log: log.With("client", "WebhookClient"), cfg: cfg, hc: hc}
}

func (c *client) Post(ctx context.Context, req Request) (*Result, error) {
	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("webhook: invalid url %q", req.URL)
	}
	raw, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("webhook: encode body: %w", err)
	}

	backoff := c.cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		status, resp, err := c.once(ctx, target.String(), req.Headers, raw)
		if err == nil {
			return &Result{StatusCode: status, Attempts: attempt + 1}, nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			return &Result{StatusCode: status, Attempts: attempt + 1}, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("webhook retrying", "host", target.Host, "attempt", attempt+1, "error", err.Error())
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return &Result{StatusCode: status, Attempts: attempt + 1}, err
		}
		backoff *= 2
	}
}

func (c *client) once(ctx context.Context, target string, headers map[string]string, body []byte) (int, *http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, resp, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return resp.StatusCode, resp, nil
}
