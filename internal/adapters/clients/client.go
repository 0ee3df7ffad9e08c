package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
	"github.com/jsamuelsen/cardsdk/internal/platform/requestid"
)

const (
	// instrumentationName is used for OpenTelemetry tracer and meter.
	instrumentationName = "github.com/jsamuelsen/cardsdk/internal/adapters/clients"

	// httpStatusCategoryDivisor divides status code to get category (2xx, 4xx, 5xx).
	httpStatusCategoryDivisor = 100

	// defaultTimeout is the per-attempt timeout if not configured.
	defaultTimeout = 30 * time.Second

	// jitterRangeMultiplier converts rand [0,1) to [-1,1) for symmetric jitter.
	jitterRangeMultiplier = 2

	// userAgent identifies the SDK to the catalog API.
	userAgent = "cardsdk-go"
)

// Config configures the catalog HTTP transport.
type Config struct {
	// BaseURL is the API root, e.g. "https://catalog.example.com/v1".
	BaseURL string

	// ServiceName identifies the API in logs, spans and metrics.
	ServiceName string

	// Timeout is the per-attempt request timeout.
	// Total wall-clock time may exceed this value due to retries and backoff.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// TokenSource supplies bearer tokens. It is consulted on every attempt,
	// so a token refreshed between retries is picked up. Nil disables auth.
	TokenSource oauth2.TokenSource

	// Logger is an optional logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Client is the instrumented transport for the catalog API. It provides
// retry with jittered exponential backoff, a circuit breaker,
// OpenTelemetry spans and metrics, request and correlation id propagation,
// and bearer token injection.
//
// Client never classifies failures. A final 4xx or 5xx response is
// returned as-is so the error classifier can read its body; only failures
// without a response come back as errors.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger
	cb          *CircuitBreaker

	tracer trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new catalog transport.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	cb := NewCircuitBreaker(cfg.Circuit)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of catalog API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of catalog API requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        orDefault(cfg.Transport.MaxIdleConns, config.DefaultTransportMaxIdleConns),
			MaxIdleConnsPerHost: orDefault(cfg.Transport.MaxIdleConnsPerHost, config.DefaultTransportMaxIdleConnsPerHost),
			IdleConnTimeout:     orDefault(cfg.Transport.IdleConnTimeout, config.DefaultTransportIdleConnTimeout),
		},
	}

	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		cfg:             cfg,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// HTTPClient returns the underlying client without retry or auth. The
// OAuth token source uses it so token calls share the connection pool.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// SetTokenSource installs the bearer token source. It must be called
// before the client is shared between goroutines.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.cfg.TokenSource = ts
}

// Do executes a request with retry, circuit breaker, tracing and logging.
//
// Bodies are replayed on retry through req.GetBody, which
// http.NewRequest sets for byte readers. The helpers below always use one.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(startTime), "circuit_open")
		logger.Warn("request blocked by circuit breaker")
		return nil, ErrCircuitOpen
	}

	ctx = c.injectHeaders(ctx, req)

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
			attribute.String("http.request_id", req.Header.Get(requestid.HeaderRequestID)),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, lastErr := c.executeWithRetry(ctx, req, logger, startTime)

	return c.recordResult(ctx, req, resp, lastErr, span, logger, startTime)
}

// executeWithRetry performs the request, retrying retryable transport
// failures and 5xx responses. The last 5xx is returned rather than turned
// into an error. POST and PATCH are only retried when the connection was
// never established, since the server may already have applied them.
func (c *Client) executeWithRetry(ctx context.Context, req *http.Request, logger *slog.Logger, startTime time.Time) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.waitForRetry(ctx, req, attempt, logger, startTime); err != nil {
				return nil, err
			}
		}

		if err := c.authorize(req); err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		lastAttempt := attempt == c.cfg.Retry.MaxAttempts-1

		if c.shouldRetry(req.Method, resp, err, attempt, lastAttempt, logger) {
			lastErr = err
			continue
		}

		return resp, err
	}

	return nil, lastErr
}

// waitForRetry sleeps for the backoff and rewinds the request body.
func (c *Client) waitForRetry(ctx context.Context, req *http.Request, attempt int, logger *slog.Logger, startTime time.Time) error {
	backoff := c.calculateBackoff(attempt)
	logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.Duration("backoff", backoff),
	)

	select {
	case <-ctx.Done():
		c.cb.RecordFailure()
		c.recordMetrics(ctx, req.Method, 0, time.Since(startTime), "context_canceled")
		return ctx.Err()
	case <-time.After(backoff):
	}

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("rewinding request body: %w", err)
		}

		req.Body = body
	}

	return nil
}

// shouldRetry reports whether the attempt should be repeated, closing the
// discarded response body when it will be.
func (c *Client) shouldRetry(method string, resp *http.Response, err error, attempt int, lastAttempt bool, logger *slog.Logger) bool {
	replayable := isIdempotent(method)

	if err != nil {
		if lastAttempt || !isRetryableError(err) {
			return false
		}

		if !replayable && !isDialError(err) {
			return false
		}

		logger.Debug("request failed with retryable error",
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)

		return true
	}

	if resp.StatusCode < http.StatusInternalServerError || lastAttempt || !replayable {
		return false
	}

	logger.Debug("request failed with server error",
		slog.Int("attempt", attempt+1),
		slog.Int("status", resp.StatusCode),
	)

	if closeErr := resp.Body.Close(); closeErr != nil {
		logger.Debug("failed to close response body", slog.Any("error", closeErr))
	}

	return true
}

// recordResult records the final outcome on the breaker, span and metrics.
func (c *Client) recordResult(ctx context.Context, req *http.Request, resp *http.Response, lastErr error, span trace.Span, logger *slog.Logger, startTime time.Time) (*http.Response, error) {
	duration := time.Since(startTime)

	if lastErr != nil {
		if !errors.Is(lastErr, ErrTokenUnavailable) {
			c.cb.RecordFailure()
		}

		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		c.recordMetrics(ctx, req.Method, 0, duration, "error")
		logger.Error("request failed",
			slog.Duration("duration", duration),
			slog.Any("error", lastErr),
		)

		if errors.Is(lastErr, ErrTokenUnavailable) || errors.Is(lastErr, context.Canceled) {
			return nil, lastErr
		}

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	statusCategory := fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor)
	c.recordMetrics(ctx, req.Method, resp.StatusCode, duration, statusCategory)

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// Get performs a GET request. query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON:API document body.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, nil, body)
}

// Patch performs a PATCH request with a JSON:API document body.
func (c *Client) Patch(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPatch, path, nil, body)
}

// Put performs a PUT request with a JSON:API document body.
func (c *Client) Put(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, path, nil, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	target := c.buildURL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	var req *http.Request
	var err error

	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, target, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, http.NoBody)
	}

	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", jsonapi.MediaType)
	}

	return c.Do(ctx, req)
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// CircuitErr returns ErrCircuitOpen while the breaker is open.
func (c *Client) CircuitErr() error {
	return c.cb.Err()
}

// injectHeaders sets content negotiation and tracing ids. A request id is
// generated when the caller has none so every call can be traced; the
// returned context carries it for logging.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) context.Context {
	req.Header.Set("Accept", jsonapi.MediaType)
	req.Header.Set("User-Agent", userAgent)

	requestID := requestid.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = requestid.WithRequestID(ctx, requestID)
	}

	req.Header.Set(requestid.HeaderRequestID, requestID)

	if correlationID := requestid.CorrelationID(ctx); correlationID != "" {
		req.Header.Set(requestid.HeaderCorrelationID, correlationID)
	}

	return ctx
}

// authorize sets the bearer header for this attempt.
func (c *Client) authorize(req *http.Request) error {
	if c.cfg.TokenSource == nil {
		return nil
	}

	tok, err := c.cfg.TokenSource.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	tok.SetAuthHeader(req)

	return nil
}

// buildURL constructs the full URL from base URL and path.
func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff returns the jittered exponential backoff for attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.cfg.Retry.InitialInterval) * math.Pow(c.cfg.Retry.Multiplier, float64(attempt))

	if backoff > float64(c.cfg.Retry.MaxInterval) {
		backoff = float64(c.cfg.Retry.MaxInterval)
	}

	jitterMultiplier := rand.Float64()*jitterRangeMultiplier - 1 //nolint:gosec // No need for crypto-grade randomness
	backoff += backoff * c.cfg.Retry.JitterFactor * jitterMultiplier

	return time.Duration(backoff)
}

// recordMetrics records request metrics.
func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// isRetryableError reports whether a transport failure is worth repeating.
// Cancellation and deadline expiry never are.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

// isIdempotent reports whether repeating a request with method cannot
// change the outcome on the server.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isDialError reports a failure to connect, before any bytes were sent.
func isDialError(err error) bool {
	var opErr *net.OpError

	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}

	return v
}
