// Package domain contains the catalog's typed models, relation schema and
// the exception taxonomy every SDK failure is reported through.
// Domain errors describe what went wrong with a catalog call, NOT how the
// transport carried it. Adapters classify raw failures into these types.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	goerrors "github.com/jmgilman/go/errors"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network failure")

	// ErrAuthentication indicates the credentials were rejected (401).
	ErrAuthentication = errors.New("authentication failed")

	// ErrAuthorization indicates the credentials lack permission (403).
	ErrAuthorization = errors.New("access forbidden")

	// ErrNotFound indicates the requested resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates the payload failed validation (422).
	ErrValidation = errors.New("validation failed")

	// ErrRateLimit indicates the caller exceeded its request quota (429).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrServer indicates the upstream failed with a 5xx status.
	ErrServer = errors.New("server error")

	// ErrAPI indicates any other non-success HTTP status.
	ErrAPI = errors.New("api error")

	// ErrDeserialization indicates a success body violated the envelope contract.
	ErrDeserialization = errors.New("deserialization failed")
)

// Source points at the request element a sub-error refers to.
type Source struct {
	Parameter string `json:"parameter,omitempty"`
	Pointer   string `json:"pointer,omitempty"`
}

// SubError is one structured entry of an exception's error list.
type SubError struct {
	Title  string  `json:"title,omitempty"`
	Detail string  `json:"detail,omitempty"`
	Status string  `json:"status,omitempty"`
	Code   string  `json:"code,omitempty"`
	Source *Source `json:"source,omitempty"`
}

// Field returns the source parameter, or "" when the sub-error has none.
func (s SubError) Field() string {
	if s.Source == nil {
		return ""
	}

	return s.Source.Parameter
}

// Fields carries the values an exception is constructed from.
// A zero StatusCode selects the type's default status.
type Fields struct {
	Message      string
	StatusCode   int
	APIErrorCode string
	APIErrors    []SubError
	Context      map[string]any
	Previous     error
}

// Exception is the base record shared by every typed SDK error.
// It is immutable once constructed.
type Exception struct {
	kind           error
	code           goerrors.ErrorCode
	classification goerrors.ErrorClassification

	message      string
	number       int
	apiErrorCode *string
	apiErrors    []SubError
	httpStatus   *int
	context      map[string]any
	previous     error
}

func newException(kind error, code goerrors.ErrorCode, defaultStatus int, f Fields) *Exception {
	e := &Exception{
		kind:           kind,
		code:           code,
		classification: classificationFor(kind),
		message:        f.Message,
		apiErrors:      append([]SubError(nil), f.APIErrors...),
		context:        maps.Clone(f.Context),
		previous:       f.Previous,
	}

	if e.message == "" {
		e.message = kind.Error()
	}

	status := f.StatusCode
	if status == 0 {
		status = defaultStatus
	}

	if status != 0 {
		e.number = status
		e.httpStatus = &status
	}

	if f.APIErrorCode != "" {
		c := f.APIErrorCode
		e.apiErrorCode = &c
	}

	if e.context == nil {
		e.context = map[string]any{}
	}

	return e
}

func classificationFor(kind error) goerrors.ErrorClassification {
	switch kind {
	case ErrNetwork, ErrRateLimit, ErrServer:
		return goerrors.ClassificationRetryable
	default:
		return goerrors.ClassificationPermanent
	}
}

// Error implements the error interface.
func (e *Exception) Error() string {
	if e.httpStatus != nil {
		return fmt.Sprintf("%s (HTTP %d): %s", e.kind, *e.httpStatus, e.message)
	}

	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Is reports whether target is the sentinel for this exception's category.
func (e *Exception) Is(target error) bool {
	return target == e.kind
}

// Unwrap returns the error this exception was classified from.
func (e *Exception) Unwrap() error {
	return e.previous
}

// Record returns the shared base record.
func (e *Exception) Record() *Exception {
	return e
}

// Kind returns the category sentinel.
func (e *Exception) Kind() error {
	return e.kind
}

// Code implements goerrors.PlatformError.
func (e *Exception) Code() goerrors.ErrorCode {
	return e.code
}

// Classification implements goerrors.PlatformError.
func (e *Exception) Classification() goerrors.ErrorClassification {
	return e.classification
}

// Message returns the human-readable message.
func (e *Exception) Message() string {
	return e.message
}

// Number returns the numeric exception code. For HTTP failures it equals
// the status code; network failures carry zero.
func (e *Exception) Number() int {
	return e.number
}

// APIErrorCode returns the machine-readable code reported by the API, if any.
func (e *Exception) APIErrorCode() *string {
	if e.apiErrorCode == nil {
		return nil
	}

	c := *e.apiErrorCode

	return &c
}

// APIErrors returns a copy of the structured sub-errors.
func (e *Exception) APIErrors() []SubError {
	return append([]SubError(nil), e.apiErrors...)
}

// HTTPStatusCode returns the response status, or nil for transport failures.
func (e *Exception) HTTPStatusCode() *int {
	if e.httpStatus == nil {
		return nil
	}

	s := *e.httpStatus

	return &s
}

// Context returns a copy of the diagnostic context.
func (e *Exception) Context() map[string]any {
	return maps.Clone(e.context)
}

// Previous returns the originating error, if any.
func (e *Exception) Previous() error {
	return e.previous
}

// fingerprintInput is the stable projection hashed by Fingerprint.
type fingerprintInput struct {
	Kind         string     `json:"kind"`
	Status       *int       `json:"status"`
	APIErrorCode *string    `json:"api_error_code"`
	APIErrors    []SubError `json:"api_errors"`
	Message      string     `json:"message"`
}

// Fingerprint returns a SHA-256 over the RFC 8785 canonical JSON of the
// exception's identifying fields. Equal exceptions share a fingerprint.
func (e *Exception) Fingerprint() string {
	raw, err := json.Marshal(fingerprintInput{
		Kind:         e.kind.Error(),
		Status:       e.httpStatus,
		APIErrorCode: e.apiErrorCode,
		APIErrors:    e.apiErrors,
		Message:      e.message,
	})
	if err != nil {
		return ""
	}

	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:])
}

// LogValue implements slog.LogValuer.
func (e *Exception) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.kind.Error()),
		slog.String("message", e.message),
		slog.String("code", string(e.code)),
	}

	if e.httpStatus != nil {
		attrs = append(attrs, slog.Int("http_status", *e.httpStatus))
	}

	if e.apiErrorCode != nil {
		attrs = append(attrs, slog.String("api_error_code", *e.apiErrorCode))
	}

	if len(e.apiErrors) > 0 {
		attrs = append(attrs, slog.Int("api_errors", len(e.apiErrors)))
	}

	attrs = append(attrs, slog.String("fingerprint", e.Fingerprint()))

	return slog.GroupValue(attrs...)
}

// ExceptionOf extracts the base record from any typed SDK error in err's chain.
func ExceptionOf(err error) (*Exception, bool) {
	var rec interface{ Record() *Exception }
	if errors.As(err, &rec) {
		return rec.Record(), true
	}

	return nil, false
}

// IsNetwork checks if an error is a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsAuthentication checks if an error is an authentication failure.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsAuthorization checks if an error is an authorization failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrAuthorization)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRateLimit checks if an error is a rate limit error.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimit)
}

// IsServer checks if an error is a 5xx failure.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsDeserialization checks if an error is an envelope decoding failure.
func IsDeserialization(err error) bool {
	return errors.Is(err, ErrDeserialization)
}
