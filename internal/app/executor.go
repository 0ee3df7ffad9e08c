package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
)

// Catalog writes run as a five step pipeline:
//
//  1. VALIDATE - resolve the collection and check the payload before any
//     request is made
//  2. PERFORM  - send the create or update
//  3. VERIFY   - confirm the echoed resource is the kind that was written
//     and carries an id
//  4. ARCHIVE  - refresh the request-scoped read cache with the written
//     resource
//  5. RESPOND  - hand the verified model to the caller
//
// A failure stops the pipeline at its step. The returned ExecutionError
// unwraps to the underlying exception, so errors.As still finds
// *domain.ValidationError and friends.

// ExecutionStep names a step of the write pipeline.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionValidationError creates an error for the validate step.
func NewExecutionValidationError(message string, cause error) error {
	return &ExecutionError{Step: StepValidate, Message: message, Cause: cause}
}

// NewPerformError creates an error for the perform step.
func NewPerformError(message string, cause error) error {
	return &ExecutionError{Step: StepPerform, Message: message, Cause: cause}
}

// NewVerifyError creates an error for the verify step.
func NewVerifyError(message string, cause error) error {
	return &ExecutionError{Step: StepVerify, Message: message, Cause: cause}
}

// NewArchiveError creates an error for the archive step.
func NewArchiveError(message string, cause error) error {
	return &ExecutionError{Step: StepArchive, Message: message, Cause: cause}
}

// Executor runs write operations through the pipeline, logging each step.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger defers to the logger
// carried by each call's context.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Operation supplies the step functions. Nil steps are skipped.
type Operation[I, P, V, O any] struct {
	// Name identifies this operation for logging, e.g. "create cards".
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// executionContext holds state during operation execution.
type executionContext[I, P, V, O any] struct {
	logger *slog.Logger
	op     Operation[I, P, V, O]
	input  I
}

func (e *executionContext[I, P, V, O]) runValidate(ctx context.Context) error {
	if e.op.Validate == nil {
		return nil
	}

	err := e.op.Validate(ctx, e.input)
	if err != nil {
		e.logger.DebugContext(ctx, "write rejected", slog.Any("error", err))

		return NewExecutionValidationError("payload rejected", err)
	}

	return nil
}

func (e *executionContext[I, P, V, O]) runPerform(ctx context.Context) (P, error) {
	var zero P

	if e.op.Perform == nil {
		return zero, nil
	}

	e.logger.Log(ctx, logging.LevelTrace, "sending write")

	performed, err := e.op.Perform(ctx, e.input)
	if err != nil {
		e.logger.WarnContext(ctx, "write failed", slog.Any("error", err))

		return zero, NewPerformError("request failed", err)
	}

	return performed, nil
}

func (e *executionContext[I, P, V, O]) runVerify(ctx context.Context, performed P) (V, error) {
	var zero V

	if e.op.Verify == nil {
		return zero, nil
	}

	verified, err := e.op.Verify(ctx, e.input, performed)
	if err != nil {
		e.logger.ErrorContext(ctx, "write not confirmed", slog.Any("error", err))

		return zero, NewVerifyError("unexpected response", err)
	}

	return verified, nil
}

func (e *executionContext[I, P, V, O]) runArchive(ctx context.Context, verified V) error {
	if e.op.Archive == nil {
		return nil
	}

	err := e.op.Archive(ctx, e.input, verified)
	if err != nil {
		e.logger.ErrorContext(ctx, "cache refresh failed", slog.Any("error", err))

		return NewArchiveError("cache refresh failed", err)
	}

	return nil
}

func (e *executionContext[I, P, V, O]) runRespond(ctx context.Context, verified V) (O, error) {
	var zero O

	if e.op.Respond == nil {
		return zero, nil
	}

	return e.op.Respond(ctx, e.input, verified)
}

// Execute runs op for input through every step in order.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	logger := exec.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	ec := &executionContext[I, P, V, O]{
		logger: logger,
		op:     op,
		input:  input,
	}

	err := ec.runValidate(ctx)
	if err != nil {
		return zero, err
	}

	performed, err := ec.runPerform(ctx)
	if err != nil {
		return zero, err
	}

	verified, err := ec.runVerify(ctx, performed)
	if err != nil {
		return zero, err
	}

	err = ec.runArchive(ctx, verified)
	if err != nil {
		return zero, err
	}

	result, err := ec.runRespond(ctx, verified)
	if err != nil {
		return zero, err
	}

	logger.DebugContext(ctx, "write completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
