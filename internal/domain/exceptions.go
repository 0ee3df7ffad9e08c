package domain

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	goerrors "github.com/jmgilman/go/errors"
)

// GeneralField is the bucket for validation messages that name no field.
const GeneralField = "general"

// AuthenticationError reports rejected credentials.
type AuthenticationError struct {
	*Exception
}

// NewAuthenticationError creates an authentication error. Default status 401.
func NewAuthenticationError(f Fields) *AuthenticationError {
	return &AuthenticationError{newException(ErrAuthentication, goerrors.CodeUnauthorized, http.StatusUnauthorized, f)}
}

// AuthorizationError reports credentials lacking permission.
type AuthorizationError struct {
	*Exception
}

// NewAuthorizationError creates an authorization error. Default status 403.
func NewAuthorizationError(f Fields) *AuthorizationError {
	return &AuthorizationError{newException(ErrAuthorization, goerrors.CodeForbidden, http.StatusForbidden, f)}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	*Exception
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a generic resource not found error. Default status 404.
func NewNotFoundError(resourceType, id string, f Fields) *NotFoundError {
	if f.Message == "" {
		f.Message = notFoundMessage(resourceType, id)
	}

	return &NotFoundError{
		Exception:    newException(ErrNotFound, goerrors.CodeNotFound, http.StatusNotFound, f),
		ResourceType: resourceType,
		ResourceID:   id,
	}
}

func notFoundMessage(resourceType, id string) string {
	switch {
	case resourceType == "":
		return "Resource not found"
	case id == "":
		return resourceType + " not found"
	default:
		return fmt.Sprintf("%s with id %q not found", resourceType, id)
	}
}

// CardNotFoundError reports a missing card.
type CardNotFoundError struct {
	*NotFoundError
}

// NewCardNotFoundError creates a card not found error.
func NewCardNotFoundError(id string, f Fields) *CardNotFoundError {
	return &CardNotFoundError{NewNotFoundError("card", id, f)}
}

// As lets errors.As reach the embedded NotFoundError.
func (e *CardNotFoundError) As(target any) bool {
	return asNotFound(e.NotFoundError, target)
}

// PlayerNotFoundError reports a missing player.
type PlayerNotFoundError struct {
	*NotFoundError
}

// NewPlayerNotFoundError creates a player not found error.
func NewPlayerNotFoundError(id string, f Fields) *PlayerNotFoundError {
	return &PlayerNotFoundError{NewNotFoundError("player", id, f)}
}

// As lets errors.As reach the embedded NotFoundError.
func (e *PlayerNotFoundError) As(target any) bool {
	return asNotFound(e.NotFoundError, target)
}

// SetNotFoundError reports a missing set.
type SetNotFoundError struct {
	*NotFoundError
}

// NewSetNotFoundError creates a set not found error.
func NewSetNotFoundError(id string, f Fields) *SetNotFoundError {
	return &SetNotFoundError{NewNotFoundError("set", id, f)}
}

// As lets errors.As reach the embedded NotFoundError.
func (e *SetNotFoundError) As(target any) bool {
	return asNotFound(e.NotFoundError, target)
}

func asNotFound(nf *NotFoundError, target any) bool {
	if t, ok := target.(**NotFoundError); ok {
		*t = nf
		return true
	}

	return false
}

// ValidationError reports a rejected payload with per-field messages.
type ValidationError struct {
	*Exception
}

// NewValidationError creates a validation error. Default status 422.
func NewValidationError(f Fields) *ValidationError {
	return &ValidationError{newException(ErrValidation, goerrors.CodeInvalidInput, http.StatusUnprocessableEntity, f)}
}

// ErrorsByField groups sub-error details by source parameter. Entries
// without a field land under GeneralField.
func (e *ValidationError) ErrorsByField() map[string][]string {
	out := make(map[string][]string)

	for _, se := range e.apiErrors {
		field := se.Field()
		if field == "" {
			field = GeneralField
		}

		out[field] = append(out[field], validationText(se))
	}

	return out
}

// FieldNames returns the fields with errors in first-seen order.
func (e *ValidationError) FieldNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(e.apiErrors))

	for _, se := range e.apiErrors {
		field := se.Field()
		if field == "" {
			field = GeneralField
		}

		if !seen[field] {
			seen[field] = true
			names = append(names, field)
		}
	}

	return names
}

// HasFieldError reports whether field has at least one message.
func (e *ValidationError) HasFieldError(field string) bool {
	return len(e.FieldErrors(field)) > 0
}

// FieldErrors returns the messages recorded for field.
func (e *ValidationError) FieldErrors(field string) []string {
	return e.ErrorsByField()[field]
}

func validationText(se SubError) string {
	if se.Detail != "" {
		return se.Detail
	}

	return se.Title
}

// RateLimitError reports an exhausted request quota. Header-derived fields
// are nil when the server did not send them.
type RateLimitError struct {
	*Exception
	Limit      *int
	Remaining  *int
	ResetAt    *int
	RetryAfter *int
}

// RateLimitHeaders carries the quota values read from a 429 response.
type RateLimitHeaders struct {
	Limit      *int
	Remaining  *int
	ResetAt    *int
	RetryAfter *int
}

// NewRateLimitError creates a rate limit error. Default status 429.
func NewRateLimitError(h RateLimitHeaders, f Fields) *RateLimitError {
	return &RateLimitError{
		Exception:  newException(ErrRateLimit, goerrors.CodeRateLimit, http.StatusTooManyRequests, f),
		Limit:      h.Limit,
		Remaining:  h.Remaining,
		ResetAt:    h.ResetAt,
		RetryAfter: h.RetryAfter,
	}
}

// SecondsUntilReset returns max(0, reset-now) when a reset timestamp is
// known, else RetryAfter, else nil.
func (e *RateLimitError) SecondsUntilReset() *int {
	return e.secondsUntilResetAt(time.Now())
}

func (e *RateLimitError) secondsUntilResetAt(now time.Time) *int {
	if e.ResetAt != nil {
		secs := max(0, *e.ResetAt-int(now.Unix()))
		return &secs
	}

	if e.RetryAfter != nil {
		secs := *e.RetryAfter
		return &secs
	}

	return nil
}

// ServerError reports a 5xx response.
type ServerError struct {
	*Exception
}

// NewServerError creates a server error. Default status 500.
func NewServerError(f Fields) *ServerError {
	code := goerrors.CodeUnavailable
	if f.StatusCode == 0 || f.StatusCode == http.StatusInternalServerError {
		code = goerrors.CodeInternal
	}

	return &ServerError{newException(ErrServer, code, http.StatusInternalServerError, f)}
}

// APIError reports a non-success status with no dedicated type.
type APIError struct {
	*Exception
}

// NewAPIError creates a generic API error preserving the response status.
func NewAPIError(f Fields) *APIError {
	return &APIError{newException(ErrAPI, goerrors.CodeUnknown, 0, f)}
}

// DeserializationError reports a body that does not satisfy the envelope contract.
type DeserializationError struct {
	*Exception
}

// NewDeserializationError creates a deserialization error.
func NewDeserializationError(message string, previous error) *DeserializationError {
	return &DeserializationError{newException(ErrDeserialization, goerrors.CodeSchemaFailed, 0, Fields{
		Message:  message,
		Previous: previous,
	})}
}

// NetworkFlavor identifies which transport failure a NetworkError describes.
type NetworkFlavor string

// Transport failure flavors.
const (
	FlavorTimeout           NetworkFlavor = "timeout"
	FlavorConnectionRefused NetworkFlavor = "connection_refused"
	FlavorDNS               NetworkFlavor = "dns"
	FlavorTLS               NetworkFlavor = "tls"
	FlavorGeneric           NetworkFlavor = "generic"
)

// NetworkError reports a failure that produced no HTTP response.
// Only the fields relevant to Flavor are populated.
type NetworkError struct {
	*Exception
	Flavor         NetworkFlavor
	TimeoutSeconds float64
	Host           string
	Port           int
	Hostname       string
	Detail         string
}

// NewTimeoutError creates a timeout flavored network error.
func NewTimeoutError(seconds float64, previous error) *NetworkError {
	msg := "Request timed out after " + strconv.FormatFloat(seconds, 'f', -1, 64) + " seconds"

	return newNetworkError(FlavorTimeout, goerrors.CodeTimeout, msg, previous, func(n *NetworkError) {
		n.TimeoutSeconds = seconds
	})
}

// NewConnectionRefusedError creates a connection refused network error.
func NewConnectionRefusedError(host string, port int, previous error) *NetworkError {
	msg := fmt.Sprintf("Connection refused to %s:%d", host, port)

	return newNetworkError(FlavorConnectionRefused, goerrors.CodeNetwork, msg, previous, func(n *NetworkError) {
		n.Host = host
		n.Port = port
	})
}

// NewDNSError creates a host resolution network error.
func NewDNSError(hostname string, previous error) *NetworkError {
	return newNetworkError(FlavorDNS, goerrors.CodeNetwork, "Could not resolve host: "+hostname, previous, func(n *NetworkError) {
		n.Hostname = hostname
	})
}

// NewTLSError creates a TLS handshake or certificate network error.
func NewTLSError(detail string, previous error) *NetworkError {
	return newNetworkError(FlavorTLS, goerrors.CodeNetwork, "SSL/TLS error: "+detail, previous, func(n *NetworkError) {
		n.Detail = detail
	})
}

// NewGenericNetworkError creates a network error carrying the original message.
func NewGenericNetworkError(message string, previous error) *NetworkError {
	return newNetworkError(FlavorGeneric, goerrors.CodeNetwork, message, previous, func(n *NetworkError) {
		n.Detail = message
	})
}

func newNetworkError(flavor NetworkFlavor, code goerrors.ErrorCode, msg string, previous error, fill func(*NetworkError)) *NetworkError {
	n := &NetworkError{
		Exception: newException(ErrNetwork, code, 0, Fields{
			Message:  msg,
			Previous: previous,
			Context:  map[string]any{"flavor": string(flavor)},
		}),
		Flavor: flavor,
	}
	fill(n)

	return n
}
