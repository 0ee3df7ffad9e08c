// Package clients provides the instrumented HTTP transport the SDK uses to
// reach the catalog API.
package clients

import "errors"

// Transport errors. They describe infrastructure failures and are turned
// into typed SDK exceptions by the acl package.
var (
	// ErrCircuitOpen is returned while the circuit breaker blocks requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrTokenUnavailable wraps a failure to obtain an OAuth access token.
	ErrTokenUnavailable = errors.New("access token unavailable")
)
