package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker reports the health of one dependency. The SDK registers
// its catalog adapter; the stub registers its fixture store.
//
// Example implementation:
//
//	type TokenEndpoint struct{ url string }
//
//	func (t *TokenEndpoint) Name() string { return "token-endpoint" }
//
//	func (t *TokenEndpoint) Check(ctx context.Context) error {
//	    _, err := t.source.Token()
//	    return err
//	}
type HealthChecker interface {
	// Name identifies the dependency in results. Names are unique per
	// registry.
	Name() string

	// Check returns nil when the dependency is usable. It must honour ctx.
	Check(ctx context.Context) error
}

// HealthRegistry runs every registered check on demand.
type HealthRegistry interface {
	// Register adds a checker. Registering a name twice fails with
	// ErrDuplicateChecker.
	Register(checker HealthChecker) error

	// CheckAll runs the checks concurrently under ctx.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the state of one check or of the whole registry.
type HealthStatus string

const (
	// HealthStatusHealthy indicates the check passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy indicates the check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult aggregates one CheckAll run. Status is unhealthy when any
// check failed.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of a single check. HTTPStatus is set when the
// failure was a catalog exception carrying a response status.
type CheckResult struct {
	Status     HealthStatus  `json:"status"`
	Message    string        `json:"message,omitempty"`
	HTTPStatus *int          `json:"http_status,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// DefaultHealthRegistry is a HealthRegistry safe for concurrent use.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{
		checkers: make([]HealthChecker, 0),
	}
}

// Register adds checker unless its name is taken.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every check in its own goroutine and waits for all of them.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := make([]HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var wg sync.WaitGroup

	for i, checker := range checkers {
		wg.Go(func() {
			results[i] = runCheck(ctx, checker)
		})
	}

	wg.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	for i, checker := range checkers {
		out.Checks[checker.Name()] = results[i]

		if results[i].Status == HealthStatusUnhealthy {
			out.Status = HealthStatusUnhealthy
		}
	}

	return out
}

func runCheck(ctx context.Context, checker HealthChecker) *CheckResult {
	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{
		Status:   HealthStatusHealthy,
		Duration: time.Since(start),
	}

	if err == nil {
		return res
	}

	res.Status = HealthStatusUnhealthy
	res.Message = err.Error()

	var withStatus interface{ HTTPStatusCode() *int }
	if errors.As(err, &withStatus) {
		res.HTTPStatus = withStatus.HTTPStatusCode()
	}

	return res
}
