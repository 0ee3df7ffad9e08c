package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients"
	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// Context keys attached to every classified HTTP failure.
const (
	ContextStatusCode     = "http_status_code"
	ContextHeaders        = "headers"
	ContextResponseBody   = "response_body"
	ContextParsedResponse = "parsed_response"
	ContextRawBody        = "raw_body"
)

// Rate limit headers read from 429 responses.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// maxErrorBody caps how much of a failure body is read.
const maxErrorBody = 1 << 20

// failureBody is the subset of an error body the classifier reads.
type failureBody struct {
	Message          any             `json:"message"`
	ErrorDescription any             `json:"error_description"`
	Error            any             `json:"error"`
	Code             any             `json:"code"`
	Errors           json.RawMessage `json:"errors"`
}

// ClassifyResponse reads and closes resp.Body, then classifies the failure.
func ClassifyResponse(resp *http.Response, previous error, extra map[string]any) error {
	if resp == nil {
		return domain.NewGenericNetworkError("no response received", previous)
	}

	var body []byte

	if resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil && previous == nil {
			previous = fmt.Errorf("reading error body: %w", err)
		}

		body = b
	}

	return ClassifyHTTPResponse(resp.StatusCode, resp.Header, body, previous, extra)
}

// ClassifyHTTPResponse maps a failed HTTP exchange to exactly one typed
// exception. It never fails: an unparseable body is kept under raw_body.
func ClassifyHTTPResponse(status int, headers http.Header, body []byte, previous error, extra map[string]any) error {
	f := ExtractFields(status, headers, body, previous, extra)
	if f.Message == "" {
		f.Message = defaultMessageForStatus(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return domain.NewAuthenticationError(f)
	case status == http.StatusForbidden:
		return domain.NewAuthorizationError(f)
	case status == http.StatusNotFound:
		return domain.NewNotFoundError("", "", f)
	case status == http.StatusUnprocessableEntity:
		return domain.NewValidationError(f)
	case status == http.StatusTooManyRequests:
		return domain.NewRateLimitError(rateLimitHeaders(headers, time.Now()), f)
	case status >= http.StatusInternalServerError:
		return domain.NewServerError(f)
	default:
		return domain.NewAPIError(f)
	}
}

// ExtractFields builds the exception fields for a failed response. Message
// is left empty when the body supplied none, so callers can choose a
// type-specific default.
func ExtractFields(status int, headers http.Header, body []byte, previous error, extra map[string]any) domain.Fields {
	ctx := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		ctx[k] = v
	}

	ctx[ContextStatusCode] = status
	ctx[ContextHeaders] = flattenHeaders(headers)
	ctx[ContextResponseBody] = string(body)

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		ctx[ContextParsedResponse] = map[string]any{ContextRawBody: string(body)}

		return domain.Fields{StatusCode: status, Context: ctx, Previous: previous}
	}

	ctx[ContextParsedResponse] = parsed

	f := domain.Fields{StatusCode: status, Context: ctx, Previous: previous}

	if _, isObject := parsed.(map[string]any); !isObject {
		return f
	}

	var fb failureBody
	if err := json.Unmarshal(body, &fb); err != nil {
		return f
	}

	subErrors, _ := jsonapi.SubErrors(fb.Errors)

	f.Message = pickMessage(fb, subErrors)
	f.APIErrors = subErrors

	if len(f.APIErrors) == 0 {
		if msg := bodyMessage(fb); msg != "" {
			f.APIErrors = []domain.SubError{{Title: "Error", Detail: msg}}
		}
	}

	f.APIErrorCode = strings.TrimSpace(scalar(fb.Code))
	if f.APIErrorCode == "" && len(subErrors) > 0 {
		f.APIErrorCode = subErrors[0].Code
	}

	return f
}

// pickMessage checks message, error_description, error (string only),
// then the first sub-error detail.
func pickMessage(fb failureBody, subErrors []domain.SubError) string {
	if msg := bodyMessage(fb); msg != "" {
		return msg
	}

	if len(subErrors) > 0 {
		return subErrors[0].Detail
	}

	return ""
}

func bodyMessage(fb failureBody) string {
	if s, ok := fb.Message.(string); ok && s != "" {
		return s
	}

	if s, ok := fb.ErrorDescription.(string); ok && s != "" {
		return s
	}

	if s, ok := fb.Error.(string); ok && s != "" {
		return s
	}

	return ""
}

func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// flattenHeaders joins multi-valued headers with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}

	return out
}

// rateLimitHeaders reads the quota headers. Each is independently optional.
func rateLimitHeaders(h http.Header, now time.Time) domain.RateLimitHeaders {
	return domain.RateLimitHeaders{
		Limit:      headerInt(h, HeaderRateLimitLimit),
		Remaining:  headerInt(h, HeaderRateLimitRemaining),
		ResetAt:    headerInt(h, HeaderRateLimitReset),
		RetryAfter: retryAfter(h, now),
	}
}

func headerInt(h http.Header, key string) *int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}

	if n, err := strconv.Atoi(v); err == nil {
		return &n
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		n := int(f)
		return &n
	}

	return nil
}

// retryAfter accepts delta-seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) *int {
	if n := headerInt(h, HeaderRetryAfter); n != nil {
		return n
	}

	v := strings.TrimSpace(h.Get(HeaderRetryAfter))
	if v == "" {
		return nil
	}

	t, err := http.ParseTime(v)
	if err != nil {
		return nil
	}

	secs := max(0, int(t.Sub(now).Seconds()))

	return &secs
}

// defaultMessageForStatus returns the message used when the body has none.
func defaultMessageForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusForbidden:
		return "Access forbidden"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusUnprocessableEntity:
		return "Validation failed"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded"
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return http.StatusText(status)
	default:
		return fmt.Sprintf("HTTP %d error", status)
	}
}

// MapClientError translates an error returned by the transport into a
// typed exception. Errors that are already typed pass through.
func MapClientError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := domain.ExceptionOf(err); ok {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return classifyTokenFailure(retrieveErr, err)
	}

	if errors.Is(err, clients.ErrCircuitOpen) {
		return domain.NewGenericNetworkError("circuit breaker open: upstream marked unavailable", err)
	}

	return ClassifyTransportFailure(err)
}

// classifyTokenFailure maps a token endpoint rejection. OAuth servers report
// bad client credentials as 400 or 401, both of which are authentication
// failures for the SDK.
func classifyTokenFailure(re *oauth2.RetrieveError, err error) error {
	status := 0
	var headers http.Header

	if re.Response != nil {
		status = re.Response.StatusCode
		headers = re.Response.Header
	}

	extra := map[string]any{"oauth_error": re.ErrorCode}

	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		f := ExtractFields(status, headers, re.Body, err, extra)
		if f.Message == "" {
			f.Message = defaultMessageForStatus(http.StatusUnauthorized)
		}

		return domain.NewAuthenticationError(f)
	}

	if status == 0 {
		return ClassifyTransportFailure(err)
	}

	return ClassifyHTTPResponse(status, headers, re.Body, err, extra)
}
