package apisports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/betania/sportsync/internal/platform/resilience"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

const (
	defaultProxyPath  = "/functions/v1/api-sports"
	maxResponseBytes  = 6 << 20
	defaultTimeout    = 15 * time.Second
	healthProbeTarget = "leagues"
)

var authHeaderRegex = regexp.MustCompile(`(?i)(bearer\s+)[^\s"']+`)
var apikeyParamRegex = regexp.MustCompile(`apikey=[^&\s"']+`)

// ErrTransient marks failures worth retrying: network errors, rate
// limiting and proxy 5xx responses.
var ErrTransient = crerr.New("request proxy transient failure")

// ErrUpstream marks a well-formed proxy reply whose envelope reports
// an upstream provider error.
var ErrUpstream = crerr.New("upstream provider error")

// Envelope is the uniform reply shape of the request proxy.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
	Meta  *Meta           `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type Meta struct {
	Endpoint     string      `json:"endpoint,omitempty"`
	Results      int         `json:"results,omitempty"`
	Cached       bool        `json:"cached,omitempty"`
	UsedFallback bool        `json:"usedFallback,omitempty"`
	Season       json.Number `json:"season,omitempty"`
	RateLimit    *RateLimit  `json:"rateLimit,omitempty"`
}

type RateLimit struct {
	Limit     int `json:"limit,omitempty"`
	Remaining int `json:"remaining,omitempty"`
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ProxyPath      string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the serverless request proxy fronting the sports API.
// The provider credential never leaves the proxy; the client only holds
// the public gateway key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	proxyPath  string
	apiKey     string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	proxyPath := strings.TrimSpace(cfg.ProxyPath)
	if proxyPath == "" {
		proxyPath = defaultProxyPath
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		proxyPath:  proxyPath,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

// Call forwards one provider endpoint through the proxy. Identical
// concurrent calls share a single HTTP request.
func (c *Client) Call(ctx context.Context, endpoint string, params map[string]string) (Envelope, error) {
	if strings.TrimSpace(endpoint) == "" {
		return Envelope{}, fmt.Errorf("endpoint is required")
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "proxy circuit breaker rejected request", "state", c.breaker.State(), "endpoint", endpoint)
		return Envelope{}, fmt.Errorf("%w: request proxy is temporarily unavailable", ErrTransient)
	}

	values := url.Values{}
	values.Set("endpoint", endpoint)
	for key, value := range params {
		if key == "endpoint" || strings.TrimSpace(value) == "" {
			continue
		}
		values.Set(key, value)
	}

	fullURL := c.baseURL + c.proxyPath + "?" + values.Encode()

	raw, err, _ := c.flight.Do(values.Encode(), func() ([]byte, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil && crerr.Is(reqErr, ErrTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return Envelope{}, err
	}

	var env Envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode proxy envelope: %w", err)
	}

	if !env.OK {
		code, message := "unknown", "proxy reported an upstream failure"
		if env.Error != nil {
			if env.Error.Code != "" {
				code = env.Error.Code
			}
			if env.Error.Message != "" {
				message = env.Error.Message
			}
		}
		return env, fmt.Errorf("%w: code=%s %s", ErrUpstream, code, sanitizeSensitiveText(message, c.apiKey))
	}

	return env, nil
}

// Ping issues a cheap leagues lookup and reports the round trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.Call(ctx, healthProbeTarget, map[string]string{"country": "Brazil"})
	return time.Since(start), err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("authorization", "Bearer "+c.apiKey)
			req.Header.Set("apikey", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", ErrTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", ErrTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: proxy status=%d body=%s", ErrTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("proxy status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("proxy request failed")
	}
	c.logger.WarnContext(ctx, "proxy request failed", "url", redactURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const limit = 240
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	value = authHeaderRegex.ReplaceAllString(value, "${1}REDACTED")
	value = apikeyParamRegex.ReplaceAllString(value, "apikey=REDACTED")
	return value
}

func redactURL(fullURL string) string {
	return apikeyParamRegex.ReplaceAllString(fullURL, "apikey=REDACTED")
}
